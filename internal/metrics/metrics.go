// Package metrics holds the prometheus collectors shared by the server and
// the publishing pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var AssetUploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quill_asset_uploads_total",
	Help: "Asset uploads by outcome",
}, []string{"result"})

var PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "quill_posts_created_total",
	Help: "Posts accepted by the store",
})

var PostsUpdated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "quill_posts_updated_total",
	Help: "Post edits accepted by the store",
})

var RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "quill_render_duration_seconds",
	Help:    "Time spent turning a stored body into HTML",
	Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
}, []string{"engine"})

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quill_http_requests_total",
	Help: "HTTP requests by status code and method",
}, []string{"code", "method"})

// Instrument counts every request served by next.
func Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(httpRequests, next)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
