// internal/app/features/errors/templates.go
package errors

import (
	"embed"
	"html/template"
)

//go:embed templates/*.gohtml
var FS embed.FS

// parsePages parses the embedded error page template.
func parsePages() (*template.Template, error) {
	return template.ParseFS(FS, "templates/*.gohtml")
}
