package config

import "os"

const (
	TemplatesLocalDir = "templates"

	TemplateLayout   = "layout.html"
	TemplateIndex    = "index.html"
	TemplatePost     = "post.html"
	TemplateNotFound = "notfound.html"

	PostsLocalDir = "posts"
	PostsUrlPath  = "/" + PostsLocalDir + "/"

	UploadsLocalDir = "uploads"
	UploadsUrlPath  = "/" + UploadsLocalDir + "/"
)

const (
	DefaultConfigPath = "config.yaml"
	EnvConfigPath     = "QUILL_CONFIG"
)

// ConfigPath returns the config file named by QUILL_CONFIG, or config.yaml.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}
