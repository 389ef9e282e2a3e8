package model

import (
	"html/template"
	"net/http"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/theme"
)

type PageData struct {
	SiteName string
	Tagline  string

	PageURL string

	SyntaxCSS   template.CSS
	SyntaxTheme string
}

func NewPageData(r *http.Request) *PageData {
	syntaxTheme := theme.GetSyntaxThemeFromRequest(r)
	return &PageData{
		SiteName:    config.AppConfig.Site.Name,
		Tagline:     config.AppConfig.Site.Tagline,
		PageURL:     r.URL.Path,
		SyntaxTheme: syntaxTheme,
		SyntaxCSS:   theme.GenerateSyntaxCSS(syntaxTheme),
	}
}
