// Package render turns a stored post body, markdown with embedded HTML, into
// the HTML served to readers.
package render

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/metrics"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/rewrite"
	"github.com/debemdeboas/quill/internal/theme"
	"github.com/debemdeboas/quill/internal/util"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// Renderer resolves relative image references against BaseURL and renders
// with the configured engine.
type Renderer struct {
	BaseURL string
	Engine  string
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{
		BaseURL: cfg.Assets.PublicBaseURL,
		Engine:  cfg.Content.MarkdownRenderer,
	}
}

func (r *Renderer) engine() string {
	if r.Engine == config.RendererMmark {
		return config.RendererMmark
	}
	return config.RendererClassic
}

// Render derives the reader view of post. Every image reference in the
// output is absolute, whether it came from raw HTML or markdown.
func (r *Renderer) Render(post *model.Post) (*model.RenderedPost, error) {
	if post == nil {
		return nil, fmt.Errorf("render: nil post")
	}
	start := time.Now()
	engine := r.engine()

	body := rewrite.AbsolutizeHTML(string(post.Body), r.BaseURL)
	key := util.ContentHashString(r.BaseURL + "\x00" + body)

	// The front matter title is read from a copy; post is left untouched.
	titled := *post
	if info, _ := util.GetFrontMatter([]byte(body)); info != nil {
		titled.Info = info
	}

	var out template.HTML
	if cached, ok := cache.GetRendered(key, engine); ok {
		out = cached.HTML
	} else {
		var rendered []byte
		if engine == config.RendererMmark {
			rendered, _ = r.renderMmark([]byte(body))
		} else {
			rendered = r.renderClassic([]byte(body))
		}
		out = template.HTML(rewrite.AbsolutizeHTML(string(rendered), r.BaseURL))
		cache.SetRendered(key, engine, out)
	}

	metrics.RenderDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	renderLogger.Debug().
		Str("post_id", string(post.ID)).
		Str("engine", engine).
		Dur("took", time.Since(start)).
		Msg("Rendered post")

	return &model.RenderedPost{
		ID:          post.ID,
		Title:       titled.GetTitle(),
		HTML:        out,
		ImageURL:    post.ImageURL,
		CreatedDate: post.CreatedDate,
	}, nil
}

// HighlightCode renders code with chroma classes. The output stays escaped;
// callout markers such as "// <<1>>" become spans.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}

	var buf strings.Builder
	style := styles.Get(theme.DefaultSyntaxTheme())
	formatter := theme.GetFormatter()
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return html.EscapeString(code)
	}

	return config.RegexCallout.ReplaceAllString(buf.String(), "<span class=\"callout\">$1</span>")
}

func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Literal)
		case *ast.Code:
			b.Write(t.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}

// renderImage writes markdown images wrapped in an image container, with the
// destination resolved against the base URL.
func (r *Renderer) renderImage(w io.Writer, img *ast.Image, entering bool) ast.WalkStatus {
	if !entering {
		return ast.GoToNext
	}

	src := rewrite.Absolutize(string(img.Destination), r.BaseURL)
	fmt.Fprintf(w, `<div class="image-container"><img src="%s" alt="%s"`,
		html.EscapeString(src), html.EscapeString(nodeText(img)))
	if len(img.Title) > 0 {
		fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(img.Title)))
	}
	io.WriteString(w, ` loading="lazy"></div>`)
	return ast.SkipChildren
}

func (r *Renderer) hook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	switch n := node.(type) {
	case *ast.CodeBlock:
		if entering {
			var lang string
			if info := n.Info; info != nil {
				lang = string(info)
			}
			fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(n.Literal), lang))
		}
		return ast.GoToNext, true
	case *ast.Image:
		return r.renderImage(w, n, entering), true
	}
	return ast.GoToNext, false
}

func (r *Renderer) renderClassic(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := r.hook(w, node, entering); handled {
				return status, true
			}

			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}

			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.HardLineBreak | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists | parser.MathJax |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes |
			parser.Mmark | parser.NonBlockingSpace,
	).Parse(util.StripFrontMatter(md))

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func (r *Renderer) renderMmark(md []byte) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	// Bodies arrive over the network, so file includes stay disabled.
	p := parser.NewWithExtensions((mparser.Extensions | parser.NoIntraEmphasis) &^ parser.Includes)

	var info *mast.TitleData
	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		Flags: parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)

	mparser.AddIndex(doc)

	// info.Language may be unset, lang.New needs a value.
	if info == nil {
		info = &mast.TitleData{
			Title:    "Untitled",
			Language: "en",
		}
	}

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(info.Language),
	}

	opts := md_html.RendererOptions{
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := r.hook(w, node, entering); handled {
				return status, true
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}
