package cache

import "html/template"

var syntaxCache = NewCache[string, template.CSS]()

func GetSyntaxCSS(theme string) (template.CSS, bool) {
	return syntaxCache.Get(theme)
}

// SyntaxCSS returns the stylesheet for theme, generating it with build once.
func SyntaxCSS(theme string, build func() template.CSS) template.CSS {
	return syntaxCache.GetOrSet(theme, build)
}

func ClearSyntaxCSS() {
	syntaxCache.Clear()
}
