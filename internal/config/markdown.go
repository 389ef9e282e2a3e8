package config

import "regexp"

const (
	RendererClassic = "classic"
	RendererMmark   = "mmark"
)

const (
	AssetBackendFS = "fs"
	AssetBackendS3 = "s3"
)

var (
	// Callout markers survive highlighting HTML-escaped.
	RegexCallout = regexp.MustCompile(`//\s*&lt;&lt;(\d+)&gt;&gt;`)
)
