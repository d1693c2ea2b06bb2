// Package contact delivers contact form submissions to the configured sink.
package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"suitcraft.com/web/internal/page"
)

// Message is a sanitized contact submission ready for delivery.
type Message struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Body        string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
	RemoteIP    string    `json:"remote_ip,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// Receipt acknowledges a delivered message.
type Receipt struct {
	ID          string
	Sink        string
	DeliveredAt time.Time
}

// Deliverer hands a message to a sink.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) (Receipt, error)
}

// Named is implemented by sinks that report a stable label for logs and metrics.
type Named interface {
	Name() string
}

// ErrEmptyMessage is returned when a message has nothing left after sanitizing.
var ErrEmptyMessage = errors.New("contact: empty message")

// Origin describes who submitted a form.
type Origin struct {
	RemoteIP  string
	UserAgent string
}

// NewMessage builds a sanitized message with a fresh ULID.
func NewMessage(form page.ContactForm, origin Origin, now time.Time) Message {
	return Message{
		ID:          ulid.Make().String(),
		Name:        SanitizeLine(form.Name),
		Email:       strings.TrimSpace(form.Email),
		Body:        SanitizeText(form.Message),
		SubmittedAt: now.UTC(),
		RemoteIP:    origin.RemoteIP,
		UserAgent:   truncate(origin.UserAgent, 512),
	}
}

// ForPage adapts d to the page controller's delivery collaborator.
func ForPage(d Deliverer, origin Origin) page.Deliverer {
	return page.DelivererFunc(func(ctx context.Context, form page.ContactForm) (page.Receipt, error) {
		msg := NewMessage(form, origin, time.Now())
		if msg.Name == "" && msg.Email == "" && msg.Body == "" {
			return page.Receipt{}, ErrEmptyMessage
		}
		r, err := d.Deliver(ctx, msg)
		if err != nil {
			return page.Receipt{}, err
		}
		return page.Receipt{ID: r.ID, Sink: r.Sink, DeliveredAt: r.DeliveredAt}, nil
	})
}

func sinkName(d Deliverer) string {
	if n, ok := d.(Named); ok {
		return n.Name()
	}
	return "custom"
}
