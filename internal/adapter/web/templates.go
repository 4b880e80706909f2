package web

import (
	"embed"
	"html/template"

	"github.com/eslsoft/yorlect/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.New("web").Funcs(template.FuncMap{
		"percent": usecase.FormatPercent,
	}).ParseFS(templateFS, "templates/*.html")
}
