// Package routes defines the HTTP route patterns of the server.
package routes

import "github.com/debemdeboas/quill/internal/api"

// Pages
const (
	RobotsPath     = "GET /robots.txt"
	MetricsPath    = "GET /metrics"
	SyntaxThemeGet = "GET /syntax-theme/{theme}"
	UploadsPath    = "GET /uploads/"

	Index      = "GET /{$}"
	Post       = "GET /posts/{id}"
	PostSource = "GET /posts/{id}/source"
)

// API
const (
	Login = "POST " + api.PathLogin

	AssetUpload = "POST " + api.PathAssets

	PostCreate  = "POST " + api.PathPosts
	PostList    = "GET " + api.PathPosts
	PostDeleted = "GET " + api.PathDeletedPosts
	PostGet     = "GET " + api.PathPosts + "/{id}"
	PostUpdate  = "PUT " + api.PathPosts + "/{id}"
	PostDelete  = "DELETE " + api.PathPosts + "/{id}"
	PostRestore = "POST " + api.PathPosts + "/{id}/restore"
)
