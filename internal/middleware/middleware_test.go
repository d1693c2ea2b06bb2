package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"suitcraft.com/web/internal/page"
)

func newSessionRouter(t *testing.T, store StateStore) (*Sessions, http.Handler) {
	t.Helper()
	sessions := NewSessions(SessionOptions{SigningKey: "test-key", Path: "/", Store: store})
	r := chi.NewRouter()
	r.Use(HTMX, sessions.Middleware, sessions.CSRF)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sd := GetSession(r)
		_, _ = w.Write([]byte(sd.ID + "|" + sd.Page.Form.Name))
	})
	r.Post("/name", func(w http.ResponseWriter, r *http.Request) {
		sd := GetSession(r)
		require.NoError(t, sd.Page.UpdateField(page.FieldName, r.PostFormValue("name")))
		require.NoError(t, sd.SavePage(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	return sessions, r
}

func cookiesFrom(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestSessionIssuesCookieAndPersistsPageState(t *testing.T) {
	store := NewMemoryStateStore()
	_, h := newSessionRouter(t, store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := cookiesFrom(rec)
	require.Contains(t, cookies, sessionCookieName)
	require.Contains(t, cookies, csrfCookieName)
	require.True(t, cookies[sessionCookieName].HttpOnly)
	sessionID := strings.Split(rec.Body.String(), "|")[0]

	form := url.Values{"name": {"Jo"}, CSRFFieldName: {cookies[csrfCookieName].Value}}
	req := httptest.NewRequest(http.MethodPost, "/name", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookies[sessionCookieName])
	req.AddCookie(cookies[csrfCookieName])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, cookiesFrom(rec)[sessionCookieName], "existing sessions are not rewritten")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[sessionCookieName])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, sessionID+"|Jo", rec.Body.String())
	require.Equal(t, 1, store.Len())
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	_, h := newSessionRouter(t, NewMemoryStateStore())
	other := NewSessions(SessionOptions{SigningKey: "other-key"})
	forged := other.encode(&SessionData{ID: "6f1c2a1e-3d4b-4c5d-8e9f-0a1b2c3d4e5f"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: forged})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotContains(t, rec.Body.String(), "6f1c2a1e")
	require.Contains(t, cookiesFrom(rec), sessionCookieName, "a fresh session is issued")
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	_, h := newSessionRouter(t, NewMemoryStateStore())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := cookiesFrom(rec)

	req := httptest.NewRequest(http.MethodPost, "/name", strings.NewReader("name=Jo"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.AddCookie(cookies[sessionCookieName])
	req.AddCookie(cookies[csrfCookieName])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"error":"invalid CSRF token"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/name", strings.NewReader("name=Jo"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(csrfHeaderName, cookies[csrfCookieName].Value)
	req.AddCookie(cookies[sessionCookieName])
	req.AddCookie(cookies[csrfCookieName])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMemoryStateStoreExpires(t *testing.T) {
	store := NewMemoryStateStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", page.State{MenuOpen: true}, time.Minute))
	st, ok, err := store.Load(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, st.MenuOpen)

	now = now.Add(2 * time.Minute)
	_, ok, _ = store.Load(ctx, "a")
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, "b", page.State{}, time.Minute))
	require.Equal(t, 1, store.Len(), "expired entries are swept on save")
}

func TestResponseRecorderRunsHookOnce(t *testing.T) {
	calls := 0
	rec := httptest.NewRecorder()
	rw := NewResponseRecorder(rec)
	rw.SetBeforeWrite(func(w http.ResponseWriter) {
		calls++
		w.Header().Set("X-Hook", "1")
	})
	rw.WriteHeader(http.StatusAccepted)
	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusTeapot)

	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusAccepted, rw.Status())
	require.Equal(t, "1", rec.Header().Get("X-Hook"))
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 0.5)
	now := time.Unix(1_700_000_000, 0)
	tb.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := tb.Allow(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, _ := tb.Allow(ctx, "203.0.113.1")
	require.False(t, d.Allowed)
	require.Equal(t, 2*time.Second, d.RetryAfter)

	d, _ = tb.Allow(ctx, "198.51.100.7")
	require.True(t, d.Allowed, "buckets are per key")

	now = now.Add(2 * time.Second)
	d, _ = tb.Allow(ctx, "203.0.113.1")
	require.True(t, d.Allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(NewTokenBucket(1, 0.25), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "203.0.113.9:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "4", rec.Header().Get("Retry-After"))
}

func TestAssetsWithCache(t *testing.T) {
	fsys := fstest.MapFS{"app.css": {Data: []byte("body{}")}}
	h := http.StripPrefix("/assets", AssetsWithCache(fsys, false))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	req := httptest.NewRequest(http.MethodGet, "/assets/app.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(chiMid.RequestID, RequestLogger(zap.New(core)))
	r.Get("/go/{section}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := RequestID(r.Context())
		require.True(t, ok)
		require.NotEmpty(t, id)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/go/shop", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/go/{section}", fields["route"])
	require.Equal(t, int64(http.StatusNoContent), fields["status"])
	require.Equal(t, true, fields["htmx"])
}

func TestTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	Trigger(rec, "page:scroll", map[string]string{"section": "shop"})
	require.JSONEq(t, `{"page:scroll":{"section":"shop"}}`, rec.Header().Get("HX-Trigger"))
}
