package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"suitcraft.com/web/internal/icons"
	mw "suitcraft.com/web/internal/middleware"
	"suitcraft.com/web/internal/nav"
	"suitcraft.com/web/internal/observability"
)

// renderer parses the layout and partials once and serves them from cache
// until Invalidate is called (the dev watcher does this on file changes).
type renderer struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu   sync.RWMutex
	tmpl *template.Template
}

func newRenderer(fsys fs.FS) (*renderer, error) {
	r := &renderer{
		fsys: fsys,
		funcs: template.FuncMap{
			"icon":  icons.HTML,
			"asset": assetURL,
		},
	}
	if _, err := r.templates(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) templates() (*template.Template, error) {
	r.mu.RLock()
	t := r.tmpl
	r.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tmpl != nil {
		return r.tmpl, nil
	}
	t, err := parseTemplates(r.fsys, r.funcs)
	if err != nil {
		return nil, err
	}
	r.tmpl = t
	return t, nil
}

// Invalidate drops the cached templates; the next render reparses them.
func (r *renderer) Invalidate() {
	r.mu.Lock()
	r.tmpl = nil
	r.mu.Unlock()
}

func (r *renderer) execute(buf *bytes.Buffer, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(buf, name, data)
}

func parseTemplates(fsys fs.FS, funcs template.FuncMap) (*template.Template, error) {
	t, err := template.New("_root").Funcs(funcs).ParseFS(fsys, "*.tmpl", "partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func assetURL(base, file string) string {
	return nav.Join(base, "assets", file)
}

// render executes the named template into a buffer so template errors turn
// into a clean 500 instead of a half-written page.
func (s *server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.renderer.execute(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed",
			zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	mw.Vary(w)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
