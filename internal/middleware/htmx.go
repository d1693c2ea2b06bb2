package middleware

import (
	"encoding/json"
	"net/http"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		ctx := WithHTMX(r.Context(), is)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Trigger sets HX-Trigger so the client dispatches event with detail once the
// response is swapped in. It must be called before the header is written.
func Trigger(w http.ResponseWriter, event string, detail any) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

// Vary marks the response as depending on the HX-Request header so caches
// keep fragment and full-page variants apart.
func Vary(w http.ResponseWriter) {
	w.Header().Add("Vary", "HX-Request")
}
