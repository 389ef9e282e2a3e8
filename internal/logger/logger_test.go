package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/rs/zerolog"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected info message to be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Expected warn message to be logged")
	}
}

func TestNewWithWriterInvalidLevel(t *testing.T) {
	l := NewWithWriter("chatty", &bytes.Buffer{})
	if l.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level fallback, got %v", l.GetLevel())
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.DebugLevel)

	var seen *zerolog.Logger
	h := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromRequest(r)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	t.Run("Generates request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/x", nil))

		if rec.Header().Get(config.HRequestID) == "" {
			t.Error("Expected a request id header")
		}
		if seen == nil {
			t.Fatal("Expected a request logger in the context")
		}
		out := buf.String()
		for _, want := range []string{`"status":418`, `"path":"/posts/x"`, `"bytes":15`, `"level":"warn"`} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected log to contain %s, got %s", want, out)
			}
		}
	})

	t.Run("Keeps incoming request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(config.HRequestID, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Header().Get(config.HRequestID) != "abc-123" {
			t.Errorf("Expected request id to be echoed, got %q", rec.Header().Get(config.HRequestID))
		}
		if !strings.Contains(buf.String(), `"request_id":"abc-123"`) {
			t.Errorf("Expected request id in log, got %s", buf.String())
		}
	})
}
