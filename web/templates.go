// Package web holds the server-rendered HTML templates, embedded so the
// binary serves them without a deploy-time asset directory.
package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

func Templates() *template.Template {
	funcs := template.FuncMap{
		"dollars": func(cents int64) string {
			return fmt.Sprintf("$%.2f", float64(cents)/100)
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
