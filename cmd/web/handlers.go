package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/contact"
	mw "suitcraft.com/web/internal/middleware"
	"suitcraft.com/web/internal/nav"
	"suitcraft.com/web/internal/observability"
	"suitcraft.com/web/internal/page"
)

const (
	maxNameRunes    = contact.MaxNameLength
	maxMessageRunes = contact.MaxMessageLength

	deliveryFailedText = "We couldn't send your message right now. Please try again."
	rateLimitedText    = "You've sent several messages in a short time. Please wait a moment and try again."
)

// handleHome renders the page. A bare load starts fresh; the no-JS menu and
// section redirects land with ?view=current and keep the stored state.
func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	sd := mw.GetSession(r)
	if r.URL.Query().Get(nav.ResumeParam) == "" {
		sd.Page = page.New()
		s.save(r, sd)
	}
	s.render(w, r, http.StatusOK, "base", s.pageView(r, sd.Page, s.contactView(r, sd.Page.Form, nil)))
}

func (s *server) handleToggleMenu(w http.ResponseWriter, r *http.Request) {
	sd := mw.GetSession(r)
	sd.Page.ToggleMenu()
	s.metrics.MenuToggled()
	s.save(r, sd)

	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, nav.ResumeURL(s.cfg.Site.BasePath, ""), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "header", s.headerView(r, sd.Page, ""))
}

// handleSelectSection closes the menu and asks the client to scroll. Unknown
// ids only close the menu.
func (s *server) handleSelectSection(w http.ResponseWriter, r *http.Request) {
	sd := mw.GetSession(r)
	id := chi.URLParam(r, "section")
	sec, ok := sd.Page.SelectSection(id)
	s.metrics.SectionSelected(id, ok)
	s.save(r, sd)

	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, nav.ResumeURL(s.cfg.Site.BasePath, sec), http.StatusSeeOther)
		return
	}
	if ok {
		mw.Trigger(w, "page:scroll", map[string]string{"section": string(sec)})
	}
	s.render(w, r, http.StatusOK, "header", s.headerView(r, sd.Page, sec))
}

// handleUpdateField stores one keystroke-level change. The form posts every
// input; "field" names the one that changed.
func (s *server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	sd := mw.GetSession(r)
	field := page.Field(r.PostFormValue("field"))
	if err := sd.Page.UpdateField(field, r.PostFormValue(string(field))); err != nil {
		if errors.Is(err, page.ErrUnknownField) {
			mw.WriteError(w, r, http.StatusBadRequest, "unknown field")
			return
		}
		mw.WriteError(w, r, http.StatusInternalServerError, "could not update field")
		return
	}
	s.save(r, sd)
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit validates the form and hands it to the contact sink.
func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	sd := mw.GetSession(r)
	applyPosted(r, sd)

	logger := observability.FromContext(r.Context())
	if errs := validateContact(sd.Page.Form); len(errs) > 0 {
		s.metrics.ContactRejected("validation")
		s.save(r, sd)
		s.renderContact(w, r, http.StatusUnprocessableEntity, sd, s.contactView(r, sd.Page.Form, errs))
		return
	}

	conf, err := sd.Page.Submit(r.Context(), s.pageDeliverer(r))
	if err != nil {
		logger.Error("contact submission failed", zap.Error(err))
		s.save(r, sd)
		view := s.contactView(r, sd.Page.Form, nil)
		view.Error = deliveryFailedText
		s.renderContact(w, r, http.StatusBadGateway, sd, view)
		return
	}

	s.save(r, sd)
	logger.Info("contact submitted",
		zap.String("messageId", conf.Receipt.ID),
		zap.String("sink", conf.Receipt.Sink),
	)
	view := s.contactView(r, sd.Page.Form, nil)
	view.Confirmation = conf.Message
	if mw.IsHTMX(r.Context()) {
		mw.Trigger(w, "contact:sent", map[string]string{"id": conf.Receipt.ID})
	}
	s.renderContact(w, r, http.StatusOK, sd, view)
}

func (s *server) pageDeliverer(r *http.Request) page.Deliverer {
	if s.deliverer == nil {
		return nil
	}
	return contact.ForPage(s.deliverer, contact.Origin{RemoteIP: mw.ClientIP(r), UserAgent: r.UserAgent()})
}

// applyPosted copies submitted values over stored ones. Plain posts never ran
// field updates, and htmx ones may still have updates in flight.
func applyPosted(r *http.Request, sd *mw.SessionData) {
	for _, f := range page.Fields {
		if vals, ok := r.PostForm[string(f)]; ok && len(vals) > 0 {
			_ = sd.Page.UpdateField(f, vals[0])
		}
	}
}

// contactLimited renders the throttling refusal in place of the form, keeping
// whatever the visitor typed.
func (s *server) contactLimited(w http.ResponseWriter, r *http.Request, _ mw.Decision) {
	s.metrics.ContactRejected("rate_limited")
	sd := mw.GetSession(r)
	if err := r.ParseForm(); err == nil {
		applyPosted(r, sd)
		s.save(r, sd)
	}
	view := s.contactView(r, sd.Page.Form, nil)
	view.Error = rateLimitedText
	s.renderContact(w, r, http.StatusTooManyRequests, sd, view)
}

// renderContact swaps just the form for htmx and re-renders the whole page
// otherwise.
func (s *server) renderContact(w http.ResponseWriter, r *http.Request, status int, sd *mw.SessionData, view contactView) {
	if mw.IsHTMX(r.Context()) {
		s.render(w, r, status, "contact-form", view)
		return
	}
	s.render(w, r, status, "base", s.pageView(r, sd.Page, view))
}

// save persists page state. A failing store costs the visitor their state on
// the next request, not this response, so it is logged and not surfaced.
func (s *server) save(r *http.Request, sd *mw.SessionData) {
	if err := sd.SavePage(r.Context()); err != nil {
		observability.FromContext(r.Context()).Error("save page state failed",
			zap.String("sessionId", sd.ID), zap.Error(err))
	}
}

func validateContact(f page.ContactForm) fieldErrors {
	errs := fieldErrors{}

	name := strings.TrimSpace(f.Name)
	switch {
	case name == "":
		errs[page.FieldName] = "Please enter your name."
	case utf8.RuneCountInString(name) > maxNameRunes:
		errs[page.FieldName] = fmt.Sprintf("Please keep your name to %d characters or fewer.", maxNameRunes)
	}

	email := strings.TrimSpace(f.Email)
	if email == "" {
		errs[page.FieldEmail] = "Please enter your email address."
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs[page.FieldEmail] = "Please enter a valid email address."
	}

	message := strings.TrimSpace(f.Message)
	switch {
	case message == "":
		errs[page.FieldMessage] = "Please enter a message."
	case utf8.RuneCountInString(message) > maxMessageRunes:
		errs[page.FieldMessage] = fmt.Sprintf("Please keep your message to %d characters or fewer.", maxMessageRunes)
	}
	return errs
}
