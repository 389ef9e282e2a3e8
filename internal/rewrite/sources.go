package rewrite

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ImageSources returns the src of every <img> in text, in document order.
// Text outside tags, including markdown, is ignored.
func ImageSources(text string) []string {
	var srcs []string
	z := xhtml.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return srcs
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.Img {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "src" {
					srcs = append(srcs, string(val))
					break
				}
			}
		}
	}
}

// replaceSources walks the <img> tags of text with the tokenizer and hands
// the decoded src of each to replace. When replace reports a change, only the
// value of that src attribute is spliced; every other byte of text is kept.
func replaceSources(text string, replace func(src string) (string, bool)) string {
	var (
		out  strings.Builder
		pos  int // offset of the current token in text
		done int // text[:done] has been copied to out
	)

	z := xhtml.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		// TagName lowercases the token buffer in place, so copy Raw first.
		raw := string(z.Raw())
		start := pos
		pos += len(raw)
		if !strings.HasPrefix(text[start:], raw) {
			return text
		}

		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			continue
		}
		if name, _ := z.TagName(); atom.Lookup(name) != atom.Img {
			continue
		}

		attr, ok := srcAttr(raw)
		if !ok {
			continue
		}
		value, changed := replace(html.UnescapeString(raw[attr.start:attr.end]))
		if !changed {
			continue
		}

		quote := attr.quote
		if quote == 0 {
			quote = '"'
		}
		from, to := start+attr.start, start+attr.end
		if attr.quote != 0 {
			from, to = from-1, to+1
		}
		out.WriteString(text[done:from])
		out.WriteByte(quote)
		out.WriteString(html.EscapeString(value))
		out.WriteByte(quote)
		done = to
	}

	if done == 0 {
		return text
	}
	out.WriteString(text[done:])
	return out.String()
}

type attrSpan struct {
	start, end int
	// quote is the delimiter around the value, 0 when unquoted.
	quote byte
}

// srcAttr locates the value of the first src attribute in a raw start tag,
// scanning attributes the way the tokenizer does so that quoted values
// containing '>' or "src=" do not confuse it. The closing quote of a value
// is required; a value cut off by the end of the tag is treated as absent.
func srcAttr(tag string) (attrSpan, bool) {
	i := 1
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '/' && tag[i] != '>' {
		i++
	}

	for i < len(tag) {
		for i < len(tag) && (isTagSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}

		nameStart := i
		i++ // a leading '=' is part of the name
		for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '/' && tag[i] != '>' && tag[i] != '=' {
			i++
		}
		name := tag[nameStart:i]

		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			continue
		}
		i++
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}

		var span attrSpan
		if i < len(tag) && (tag[i] == '"' || tag[i] == '\'') {
			span.quote = tag[i]
			i++
			span.start = i
			for i < len(tag) && tag[i] != span.quote {
				i++
			}
			if i >= len(tag) {
				break
			}
			span.end = i
			i++
		} else {
			span.start = i
			for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' {
				i++
			}
			span.end = i
		}

		if strings.EqualFold(name, "src") {
			return span, true
		}
	}
	return attrSpan{}, false
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\f' || c == '\r'
}
