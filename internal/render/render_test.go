package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
)

const base = "https://blog.example.com/uploads/"

func setupTest() {
	cache.ClearRendered()
}

func render(t *testing.T, engine, body string) string {
	t.Helper()
	r := &Renderer{BaseURL: base, Engine: engine}
	out, err := r.Render(&model.Post{ID: "p", Title: "T", Body: []byte(body)})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	return string(out.HTML)
}

func TestRenderImages(t *testing.T) {
	setupTest()

	testCases := []struct {
		name     string
		body     string
		contains []string
		absent   []string
	}{
		{
			name:     "Markdown image is absolutized and wrapped",
			body:     "![a cat](cat.png)",
			contains: []string{`<div class="image-container"><img src="https://blog.example.com/uploads/cat.png" alt="a cat"`},
		},
		{
			name:     "Markdown image title",
			body:     `![x](x.png "The X")`,
			contains: []string{`title="The X"`},
		},
		{
			name:     "Absolute markdown image untouched",
			body:     "![dog](https://cdn.example.com/dog.png)",
			contains: []string{`src="https://cdn.example.com/dog.png"`},
		},
		{
			name:     "Root relative markdown image",
			body:     "![s](/static/s.png)",
			contains: []string{`src="https://blog.example.com/static/s.png"`},
		},
		{
			name:     "Raw html image is absolutized",
			body:     "<p>hi</p>\n\n<img src=\"legacy.jpg\" alt=\"old\">\n",
			contains: []string{`<img src="https://blog.example.com/uploads/legacy.jpg" alt="old">`},
			absent:   []string{`src="legacy.jpg"`},
		},
		{
			name:     "Inline raw html image",
			body:     `Look: <img src='inline.gif'> there`,
			contains: []string{`src='https://blog.example.com/uploads/inline.gif'`},
		},
		{
			name:     "Angle bracket in an earlier attribute",
			body:     `<p><img title="1 > 0" src="foo.png"></p>`,
			contains: []string{`src="https://blog.example.com/uploads/foo.png"`},
			absent:   []string{`src="foo.png"`},
		},
		{
			name:     "Unquoted raw html src",
			body:     `<p><img src=foo.png></p>`,
			contains: []string{`<img src="https://blog.example.com/uploads/foo.png">`},
		},
		{
			name:     "Src text inside another attribute",
			body:     `<p><img alt='see src="foo.png"' src="foo.png"></p>`,
			contains: []string{`alt='see src="foo.png"' src="https://blog.example.com/uploads/foo.png"`},
		},
		{
			name:     "Alt text is escaped",
			body:     `![a "quoted" & more](q.png)`,
			contains: []string{`alt="a &#34;quoted&#34; &amp; more"`},
		},
	}

	for _, engine := range []string{config.RendererClassic, config.RendererMmark} {
		for _, tc := range testCases {
			t.Run(engine+"/"+tc.name, func(t *testing.T) {
				out := render(t, engine, tc.body)
				for _, want := range tc.contains {
					if !strings.Contains(out, want) {
						t.Errorf("Expected output to contain %q, got %q", want, out)
					}
				}
				for _, unwanted := range tc.absent {
					if strings.Contains(out, unwanted) {
						t.Errorf("Expected output not to contain %q, got %q", unwanted, out)
					}
				}
			})
		}
	}
}

func TestRenderCodeHighlighting(t *testing.T) {
	setupTest()

	body := "```go\nfunc main() {\n    s := \"<script>\" // <<1>>\n}\n```\n"
	out := render(t, config.RendererClassic, body)

	if !strings.Contains(out, `<div class="highlight">`) {
		t.Errorf("Expected highlight wrapper, got %q", out)
	}
	if !strings.Contains(out, "chroma") {
		t.Errorf("Expected chroma classes, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("Expected code to stay escaped, got %q", out)
	}
	if !strings.Contains(out, `<span class="callout">1</span>`) {
		t.Errorf("Expected callout span, got %q", out)
	}
}

func TestRenderTitle(t *testing.T) {
	setupTest()
	body := "%%%\ntitle = \"From Front Matter\"\n%%%\n\nHello"

	for _, engine := range []string{config.RendererClassic, config.RendererMmark} {
		t.Run(engine, func(t *testing.T) {
			r := &Renderer{BaseURL: base, Engine: engine}

			out, err := r.Render(&model.Post{ID: "p", Body: []byte(body)})
			if err != nil {
				t.Fatalf("Render returned error: %v", err)
			}
			if out.Title != "From Front Matter" {
				t.Errorf("Expected front matter title, got %q", out.Title)
			}
			if strings.Contains(string(out.HTML), "%%%") {
				t.Errorf("Expected front matter to be consumed, got %q", out.HTML)
			}

			out, _ = r.Render(&model.Post{ID: "p", Title: "Stored", Body: []byte(body)})
			if out.Title != "Stored" {
				t.Errorf("Expected stored title to win, got %q", out.Title)
			}
		})
	}
}

func TestRenderSingleNewlineIsLineBreak(t *testing.T) {
	setupTest()

	out := render(t, config.RendererClassic, "line one\nline two")
	if !strings.Contains(out, "<br") {
		t.Errorf("Expected a line break between lines, got %q", out)
	}
}

func TestRenderDoesNotModifyPost(t *testing.T) {
	setupTest()
	r := &Renderer{BaseURL: base}
	post := &model.Post{ID: "p", Body: []byte("%%%\ntitle = \"Front\"\n%%%\n\nHello")}

	out, err := r.Render(post)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out.Title != "Front" {
		t.Errorf("Expected front matter title, got %q", out.Title)
	}
	if post.Info != nil {
		t.Errorf("Expected post.Info to stay nil, got %+v", post.Info)
	}
}

func TestRenderKeepsPostFields(t *testing.T) {
	r := &Renderer{BaseURL: base}
	post := &model.Post{ID: "p9", Title: "T", ImageURL: "https://cdn/x.png", Body: []byte("x")}

	out, err := r.Render(post)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out.ID != "p9" || out.ImageURL != "https://cdn/x.png" {
		t.Errorf("Unexpected rendered post %+v", out)
	}
}

func TestRenderNilPost(t *testing.T) {
	if _, err := (&Renderer{}).Render(nil); err == nil {
		t.Error("Expected error for nil post")
	}
}

func TestRenderCache(t *testing.T) {
	setupTest()
	body := "![c](c.png)"

	first := render(t, config.RendererClassic, body)
	second := render(t, config.RendererClassic, body)
	if first != second {
		t.Error("Expected identical output for identical bodies")
	}

	other := &Renderer{BaseURL: "https://other.example.com/", Engine: config.RendererClassic}
	out, _ := other.Render(&model.Post{Body: []byte(body)})
	if !strings.Contains(string(out.HTML), "https://other.example.com/c.png") {
		t.Errorf("Expected base url to be part of the cache key, got %q", out.HTML)
	}
}

func TestRenderConcurrency(t *testing.T) {
	setupTest()
	r := &Renderer{BaseURL: base}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Render(&model.Post{Body: []byte("# Title\n\n![c](c.png)")})
			if err != nil || !strings.Contains(string(out.HTML), base+"c.png") {
				t.Errorf("Unexpected render result %v %v", out, err)
			}
		}()
	}
	wg.Wait()
}

func TestHighlightCodeUnknownLanguage(t *testing.T) {
	out := HighlightCode("a < b", "no-such-language")
	if !strings.Contains(out, "a &lt; b") {
		t.Errorf("Expected escaped fallback output, got %q", out)
	}
}

func TestHighlightSource(t *testing.T) {
	out, err := HighlightSource("# Title\n\n<img src=\"x.png\">")
	if err != nil {
		t.Fatalf("HighlightSource returned error: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, `<div class="markdown-source">`) {
		t.Errorf("Expected source wrapper, got %q", s)
	}
	if strings.Contains(s, "<img") {
		t.Errorf("Expected markup to be escaped, got %q", s)
	}
}

func BenchmarkRender(b *testing.B) {
	r := &Renderer{BaseURL: base}
	post := &model.Post{Body: []byte("# Title\n\n```go\nfunc main() {}\n```\n\n![c](c.png)")}

	b.Run("Cached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			r.Render(post)
		}
	})

	b.Run("Uncached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			cache.ClearRendered()
			r.Render(post)
		}
	})
}
