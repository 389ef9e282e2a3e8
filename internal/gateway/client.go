package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
)

const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an unexpected response is kept for error
// reports.
const maxErrorBody = 512

// Client performs JSON calls against the server API. Every call is bounded by
// Timeout and is never retried.
type Client struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	HTTP    *http.Client
}

func NewClient(cfg config.GatewayConfig, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Token:   token,
		Timeout: cfg.Timeout,
		HTTP:    &http.Client{},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Do sends body to path and decodes the answer into out. op names the call in
// errors.
func (c *Client) Do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out *api.Response) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set(config.HCType, contentType)
	}
	req.Header.Set("Accept", config.CTypeJSON)
	if c.Token != "" {
		req.Header.Set(config.HAuthorization, config.BearerPrefix+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &errs.StorageError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	return decodeResponse(op, resp, out)
}

// DoJSON marshals in as the request body.
func (c *Client) DoJSON(ctx context.Context, op, method, path string, in any, out *api.Response) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	return c.Do(ctx, op, method, path, body, config.CTypeJSON, out)
}

func decodeResponse(op string, resp *http.Response, out *api.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.StorageError{Op: op, Status: resp.StatusCode, Err: err}
	}

	ctype := resp.Header.Get(config.HCType)
	mediaType, _, _ := mime.ParseMediaType(ctype)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, errs.ErrUnauthorized)
	case mediaType == config.CTypeHTML:
		// An HTML page where JSON was expected is usually a proxy error page or
		// a login redirect.
		return &errs.ProtocolError{
			Reason:      config.ErrExpectedJSONBody,
			ContentType: ctype,
			Body:        truncate(data),
		}
	}

	var decoded api.Response
	decodeErr := json.Unmarshal(data, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &errs.StorageError{Op: op, Status: resp.StatusCode}
		if decodeErr == nil && decoded.Message != "" {
			serr.Err = errors.New(decoded.Message)
		}
		return serr
	}

	if decodeErr != nil {
		return &errs.ProtocolError{
			Reason:      "undecodable JSON response",
			ContentType: ctype,
			Body:        truncate(data),
			Err:         decodeErr,
		}
	}
	if !decoded.Success {
		return &errs.StorageError{Op: op, Status: resp.StatusCode, Err: errors.New(decoded.Message)}
	}

	if out != nil {
		*out = decoded
	}
	return nil
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return string(data)
}
