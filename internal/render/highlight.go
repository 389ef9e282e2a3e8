package render

import (
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/quill/internal/theme"
)

// HighlightSource renders the raw markdown of a post for the source view.
func HighlightSource(source string) (template.HTML, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := html.New(
		html.WithClasses(true),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	buf.WriteString(`<div class="markdown-source">`)
	if err := formatter.Format(&buf, styles.Get(theme.DefaultSyntaxTheme()), iterator); err != nil {
		return "", err
	}
	buf.WriteString(`</div>`)

	return template.HTML(buf.String()), nil
}
