package shopweb

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds the parsed page templates. Every page template is combined
// with base.html, which provides the document shell and the header nav.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	baseContent, err := templateFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("read base template: %w", err)
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range names {
		file := path.Base(name)
		if file == "base.html" {
			continue
		}

		pageContent, err := templateFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}

		tmpl, err := template.New("base").Parse(string(baseContent))
		if err != nil {
			return nil, fmt.Errorf("parse base template for %s: %w", file, err)
		}
		tmpl, err = tmpl.Parse(string(pageContent))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}
		r.templates[file] = tmpl
	}

	if len(r.templates) == 0 {
		return nil, fmt.Errorf("no page templates embedded")
	}
	return r, nil
}

// Render executes the named page template into w.
func (r *Renderer) Render(w http.ResponseWriter, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("execute template %q: %w", name, err)
	}
	return nil
}

// RenderError writes a minimal error page with the given status.
func (r *Renderer) RenderError(w http.ResponseWriter, code int, message string) {
	http.Error(w, fmt.Sprintf("Error %d: %s", code, message), code)
}
