// Package theme picks the chroma style for a reader and generates its CSS.
package theme

import (
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
)

// GetSyntaxThemeFromRequest returns the reader's chosen chroma style, or the
// configured default when the cookie is absent or names an unknown style.
func GetSyntaxThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && IsSyntaxTheme(cookie.Value) {
		return cookie.Value
	}
	return DefaultSyntaxTheme()
}

func DefaultSyntaxTheme() string {
	if config.AppConfig != nil && config.AppConfig.Theme.SyntaxHighlighting.Default != "" {
		return config.AppConfig.Theme.SyntaxHighlighting.Default
	}
	return config.DefaultSyntaxTheme
}

func IsSyntaxTheme(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

func GetSyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

func GetFormatter() *html.Formatter {
	formatter := html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
	return formatter
}

func GenerateSyntaxCSS(theme string) template.CSS {
	return cache.SyntaxCSS(theme, func() template.CSS {
		var buf strings.Builder
		formatter := GetFormatter()
		style := styles.Get(theme)
		if style == styles.Fallback {
			style = styles.Get(config.FallbackSyntaxTheme)
		}

		bg := style.Get(chroma.Background)
		if !bg.Colour.IsSet() {
			// Calculate the color of highlighted text given the background color
			// for when the Chroma theme doesn't supply a default
			luminance := (0.299*float64(bg.Background.Red()) +
				0.587*float64(bg.Background.Green()) +
				0.114*float64(bg.Background.Blue())) / 255
			if luminance > 0.5 {
				buf.WriteString(".chroma { color: #181818; }\n")
			}
		}

		formatter.WriteCSS(&buf, style)
		return template.CSS(buf.String())
	})
}
