// Package views holds the django templates rendered by the chat service.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/django/v3"
)

//go:embed *.html
var FS embed.FS

// Extension of the template files
const Extension = ".html"

// New returns a template engine backed by the embedded templates. When dir
// is not empty templates are read from disk and reloaded on every render.
func New(dir string, reload bool) *django.Engine {
	if dir != "" {
		engine := django.New(dir, Extension)
		engine.Reload(reload)
		return engine
	}
	return django.NewFileSystem(http.FS(FS), Extension)
}
