package config

const (
	HCType         = "Content-Type"
	HETag          = "ETag"
	HCacheControl  = "Cache-Control"
	HAuthorization = "Authorization"
	HRequestID     = "X-Request-Id"

	CTypeCSS       = "text/css"
	CTypeHTML      = "text/html"
	CTypeJSON      = "application/json"
	CTypeJSONUTF8  = "application/json; charset=utf-8"
	CTypeFormURL   = "application/x-www-form-urlencoded"
	CTypeMultipart = "multipart/form-data"

	BearerPrefix = "Bearer "
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieSession     = "session"
	CookieSyntaxTheme = "syntax-theme"
)

const (
	// FormFieldImage is the multipart field carrying an uploaded asset.
	FormFieldImage = "image"
)
