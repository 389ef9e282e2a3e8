package cache

import (
	"html/template"
	"time"
)

// RenderedContent is a rendered post body. Bodies are immutable once stored,
// so an entry stays valid for as long as the body hash matches.
type RenderedContent struct {
	HTML       template.HTML
	RenderedAt time.Time
}

var renderedCache = NewCache[string, *RenderedContent]()

func renderedKey(bodyHash, engine string) string {
	return engine + ":" + bodyHash
}

func GetRendered(bodyHash, engine string) (*RenderedContent, bool) {
	return renderedCache.Get(renderedKey(bodyHash, engine))
}

func SetRendered(bodyHash, engine string, html template.HTML) {
	renderedCache.Set(renderedKey(bodyHash, engine), &RenderedContent{
		HTML:       html,
		RenderedAt: time.Now(),
	})
}

func ClearRendered() {
	renderedCache.Clear()
}
