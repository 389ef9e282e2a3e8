// Package errs defines the failure taxonomy shared by the publishing pipeline,
// its HTTP collaborators and the server handlers.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrNotFound is returned when a post id is missing or malformed. It is an
// expected outcome, not a systemic failure.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when no valid admin session is present.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports bad input shape. It is always raised before any
// network call is attempted.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AggregateUploadError lists every asset that failed to upload in a batch.
type AggregateUploadError struct {
	// Failed holds filenames in draft order.
	Failed []string
	Causes map[string]error
}

func (e *AggregateUploadError) Error() string {
	return fmt.Sprintf("upload failed for %d asset(s): %s", len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *AggregateUploadError) Unwrap() []error {
	causes := make([]error, 0, len(e.Failed))
	for _, name := range e.Failed {
		if err, ok := e.Causes[name]; ok && err != nil {
			causes = append(causes, err)
		}
	}
	return causes
}

// Has reports whether filename is among the failed uploads.
func (e *AggregateUploadError) Has(filename string) bool {
	return slices.Contains(e.Failed, filename)
}

// ProtocolError reports a response or payload whose shape was not the one
// agreed on, e.g. an HTML error page where JSON was expected.
type ProtocolError struct {
	Reason      string
	ContentType string
	Body        string
	Err         error
}

func (e *ProtocolError) Error() string {
	var b strings.Builder
	b.WriteString("protocol: ")
	b.WriteString(e.Reason)
	if e.ContentType != "" {
		b.WriteString(" (content-type ")
		b.WriteString(e.ContentType)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func Protocol(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError reports a failure of the asset store or of the persistence
// collaborator. Status is the HTTP status when one was received.
type StorageError struct {
	Op     string
	Status int
	Err    error
}

func (e *StorageError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("storage: %s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("storage: %s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	default:
		return "storage: " + e.Op
	}
}

func (e *StorageError) Unwrap() error { return e.Err }

// HTTPStatus maps an error of this package onto the status a handler should
// answer with.
func HTTPStatus(err error) int {
	var (
		verr *ValidationError
		perr *ProtocolError
		serr *StorageError
		aerr *AggregateUploadError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &verr), errors.As(err, &perr):
		return http.StatusBadRequest
	case errors.As(err, &aerr):
		return http.StatusBadGateway
	case errors.As(err, &serr):
		if serr.Status != 0 {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
