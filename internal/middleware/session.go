package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/observability"
	"suitcraft.com/web/internal/page"
)

const (
	sessionCookieName = "SUITCRAFT_SESSION"
	defaultSessionTTL = 24 * time.Hour
)

// SessionData identifies one visitor. The signed cookie carries only the
// identifiers; page state lives in the StateStore under ID.
type SessionData struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Page is the visitor's page state, loaded from the store per request.
	Page page.State `json:"-"`

	// internal dirty flag; not serialized
	dirty bool
	owner *Sessions
}

// SessionOptions configures Sessions.
type SessionOptions struct {
	SigningKey string
	Secure     bool
	Path       string
	TTL        time.Duration
	Store      StateStore
	Logger     *zap.Logger
}

// Sessions issues signed session cookies and persists page state.
type Sessions struct {
	key    []byte
	secure bool
	path   string
	ttl    time.Duration
	store  StateStore
}

// NewSessions builds a session manager. Without a signing key a process-ephemeral
// key is generated, which is only suitable for local development.
func NewSessions(opts SessionOptions) *Sessions {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(opts.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Error("session: failed to generate signing key", zap.Error(err))
			key = []byte("insecure-dev-key-please-set-SUITCRAFT_WEB_SESSION_SIGNING_KEY")
		}
		logger.Warn("session: using ephemeral signing key (dev); set SUITCRAFT_WEB_SESSION_SIGNING_KEY for production")
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStateStore()
	}
	return &Sessions{key: key, secure: opts.Secure, path: path, ttl: ttl, store: store}
}

// Middleware loads or initializes a session and stores it in request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.readCookie(r)
		if sd.ID == "" {
			sd = &SessionData{
				ID:        uuid.NewString(),
				CreatedAt: time.Now().UTC(),
				CSRFToken: newCSRFToken(),
				dirty:     true,
			}
		}
		sd.owner = s
		sd.Page = page.New()
		if fromCookie {
			st, ok, err := s.store.Load(r.Context(), sd.ID)
			switch {
			case err != nil:
				observability.FromContext(r.Context()).Warn("session: load page state failed",
					zap.String("sessionId", sd.ID), zap.Error(err))
			case ok:
				sd.Page = st
			}
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		// ensure cookie is set just before first write if needed
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.writeCookie(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// If nothing was written yet (e.g., HEAD), persist cookie now
		if !rw.wrote && (sd.dirty || !fromCookie) {
			s.writeCookie(w, sd)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{Page: page.New()}
}

// MarkDirty flags the session cookie for rewriting.
func (sd *SessionData) MarkDirty() { sd.dirty = true }

// SavePage persists the current page state. Sessions that did not come from
// the middleware have nowhere to save to and succeed silently.
func (sd *SessionData) SavePage(ctx context.Context) error {
	if sd.owner == nil || sd.ID == "" {
		return nil
	}
	return sd.owner.store.Save(ctx, sd.ID, sd.Page, sd.owner.ttl)
}

// readCookie parses and verifies the session cookie
func (s *Sessions) readCookie(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	payloadB, ok := s.verify(c.Value)
	if !ok {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payloadB, &sd); err != nil {
		return &SessionData{}, false
	}
	if _, err := uuid.Parse(sd.ID); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *Sessions) verify(value string) ([]byte, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return nil, false
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sigB, s.sign(payloadB)) {
		return nil, false
	}
	return payloadB, true
}

func (s *Sessions) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

func (s *Sessions) encode(sd *SessionData) string {
	b, _ := json.Marshal(sd)
	return base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(s.sign(b))
}

func (s *Sessions) writeCookie(w http.ResponseWriter, sd *SessionData) {
	// httpOnly to prevent JS access
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.encode(sd),
		Path:     s.path,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}
