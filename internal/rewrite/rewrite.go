// Package rewrite replaces local image references in a post body with the
// URLs their assets were uploaded to, and resolves relative image sources
// against a public base URL.
package rewrite

import (
	"net/url"
	"strings"
)

// Rewrite points every <img> whose src is exactly one of the map's filenames
// at the mapped URL. Other attributes and all other text are kept verbatim.
func Rewrite(body string, assets map[string]string) string {
	if len(assets) == 0 {
		return body
	}
	return replaceSources(body, func(src string) (string, bool) {
		if src == "" {
			return "", false
		}
		u, ok := assets[src]
		return u, ok
	})
}

// Unresolved lists, in order of appearance, every <img> src in body that is
// not an absolute http(s) URL.
func Unresolved(body string) []string {
	var out []string
	for _, src := range ImageSources(body) {
		if !IsAbsolute(src) {
			out = append(out, src)
		}
	}
	return out
}

// IsAbsolute reports whether src carries an http or https scheme.
func IsAbsolute(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Absolutize resolves src against baseURL. Absolute and empty sources are
// returned unchanged, root-relative ones are resolved against the origin of
// baseURL and anything else is appended to it.
func Absolutize(src, baseURL string) string {
	if src == "" || IsAbsolute(src) {
		return src
	}
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		if base, err := url.Parse(baseURL); err == nil && base.Scheme != "" && base.Host != "" {
			return base.Scheme + "://" + base.Host + src
		}
	}
	return baseURL + src
}

// AbsolutizeHTML applies Absolutize to the src of every <img> tag in raw
// text. The quote style of each attribute is preserved.
func AbsolutizeHTML(text, baseURL string) string {
	return replaceSources(text, func(src string) (string, bool) {
		abs := Absolutize(src, baseURL)
		return abs, abs != src
	})
}
