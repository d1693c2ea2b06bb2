// Package page holds the per-visitor state of the storefront page and the
// operations that mutate it: the mobile menu, in-page navigation and the
// contact form.
package page

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Section identifies one independently addressable region of the page.
type Section string

const (
	SectionHome    Section = "home"
	SectionAbout   Section = "about-us"
	SectionShop    Section = "shop"
	SectionContact Section = "contact"
)

// Sections lists the rendered regions in page order.
var Sections = []Section{SectionHome, SectionAbout, SectionShop, SectionContact}

// ParseSection reports whether id names a rendered section.
func ParseSection(id string) (Section, bool) {
	for _, s := range Sections {
		if string(s) == id {
			return s, true
		}
	}
	return "", false
}

// Field names one contact form input.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldMessage Field = "message"
)

// Fields lists the contact form inputs in rendering order.
var Fields = []Field{FieldName, FieldEmail, FieldMessage}

// ConfirmationText is shown after a message has been handed off.
const ConfirmationText = "Thank you for your message! We will get back to you soon."

var (
	// ErrUnknownField is returned by UpdateField for names outside Fields.
	ErrUnknownField = errors.New("page: unknown form field")
	// ErrDelivery wraps any failure of the delivery collaborator.
	ErrDelivery = errors.New("page: contact delivery failed")
)

// ContactForm carries the contact form values. Empty strings are the defaults.
type ContactForm struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

// Value returns the value of f, or "" for unknown fields.
func (f ContactForm) Value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldMessage:
		return f.Message
	default:
		return ""
	}
}

// State is the client-side state of one page instance.
type State struct {
	MenuOpen bool        `json:"menu,omitempty"`
	Form     ContactForm `json:"form"`
}

// New returns the state of a freshly loaded page: menu closed, form empty.
func New() State {
	return State{}
}

// ToggleMenu inverts the mobile menu visibility.
func (s *State) ToggleMenu() {
	s.MenuOpen = !s.MenuOpen
}

// SelectSection closes the mobile menu and returns the section the viewport
// should scroll to. For ids that are not rendered sections ok is false and
// there is nothing to scroll to; the menu is closed either way.
func (s *State) SelectSection(id string) (Section, bool) {
	s.MenuOpen = false
	return ParseSection(id)
}

// UpdateField sets exactly one form field and leaves the others unchanged.
func (s *State) UpdateField(field Field, value string) error {
	switch field {
	case FieldName:
		s.Form.Name = value
	case FieldEmail:
		s.Form.Email = value
	case FieldMessage:
		s.Form.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, string(field))
	}
	return nil
}

// Receipt acknowledges that a form reached the delivery collaborator.
type Receipt struct {
	ID          string
	Sink        string
	DeliveredAt time.Time
}

// Deliverer hands a submitted contact form to whoever answers enquiries.
type Deliverer interface {
	Deliver(ctx context.Context, form ContactForm) (Receipt, error)
}

// DelivererFunc adapts ordinary functions to Deliverer.
type DelivererFunc func(context.Context, ContactForm) (Receipt, error)

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, form ContactForm) (Receipt, error) {
	return f(ctx, form)
}

// Confirmation is surfaced to the visitor after a successful submission.
type Confirmation struct {
	Message string
	Receipt Receipt
}

// Submit hands the current form to d. On success every field is reset and a
// confirmation is returned. On failure the form is left intact so the visitor
// can retry, and the error wraps ErrDelivery.
//
// Presence and email shape are checked by the caller before Submit runs.
func (s *State) Submit(ctx context.Context, d Deliverer) (Confirmation, error) {
	if d == nil {
		return Confirmation{}, fmt.Errorf("%w: no deliverer configured", ErrDelivery)
	}
	receipt, err := d.Deliver(ctx, s.Form)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	s.Form = ContactForm{}
	return Confirmation{Message: ConfirmationText, Receipt: receipt}, nil
}
