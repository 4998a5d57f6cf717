// File: internal/transport/client.go
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// Request describes one outgoing HTTP call
type Request struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Timeout time.Duration     `json:"timeout,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}

// Response is the outcome of a completed HTTP call
type Response struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers,omitempty"`
	Body       string      `json:"body,omitempty"`
}

// ContentType returns the declared media type of the response body,
// without parameters
func (r *Response) ContentType() string {
	ct := r.Headers.Get("Content-Type")
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(ct)
}

// Fetcher is the generic HTTP fetch capability the trigger engine consumes
type Fetcher interface {
	Do(ctx context.Context, req *Request, allowInvalidCerts bool) (*Response, error)
}

// HTTPFetcher implements Fetcher on top of net/http
type HTTPFetcher struct {
	client         *http.Client
	insecureClient *http.Client
	logger         *logrus.Entry
	maxBodyBytes   int64
}

// NewHTTPFetcher creates a new HTTP fetcher. The given timeout bounds calls
// that carry no per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &HTTPFetcher{
		client:         &http.Client{Timeout: timeout, Transport: transport},
		insecureClient: &http.Client{Timeout: timeout, Transport: insecureTransport},
		logger:         utils.ComponentLogger("transport"),
		maxBodyBytes:   1 << 20,
	}
}

// Do performs the HTTP call and reads the full response body
func (f *HTTPFetcher) Do(ctx context.Context, req *Request, allowInvalidCerts bool) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeTransport, "Failed to create webhook request", err.Error())
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	client := f.client
	if allowInvalidCerts {
		client = f.insecureClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeTransport, "Failed to call webhook URL", err.Error())
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeTransport, "Failed to read webhook response", err.Error())
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(content),
	}, nil
}
