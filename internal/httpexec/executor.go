// Package httpexec issues individual HTTP requests against the target and
// classifies their outcomes.
package httpexec

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"stepload/internal/core"
)

// Executor performs single requests with a fixed method, URL, headers and
// body. Latency is measured from request dispatch to full body consumption
// on any response, and to the error signal on transport failure.
type Executor struct {
	client  *http.Client
	method  string
	url     string
	headers map[string]string
	body    string
}

func New(client *http.Client, method, url string, headers map[string]string, body string) *Executor {
	return &Executor{
		client:  client,
		method:  method,
		url:     url,
		headers: headers,
		body:    body,
	}
}

// NewClient builds an HTTP client with an explicit per-request timeout and
// a transport sized for many concurrent connections to a single host.
func NewClient(timeout time.Duration, maxConns int) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if maxConns > t.MaxIdleConns {
		t.MaxIdleConns = maxConns
	}
	t.MaxIdleConnsPerHost = maxConns
	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}
}

// isSuccess reports whether a status code counts as a successful outcome.
func isSuccess(code int) bool {
	return code >= 200 && code < 400
}

// Execute performs one request. Transport errors and non-2xx/3xx statuses
// both come back as a failed Outcome, never as an error.
func (e *Executor) Execute(ctx context.Context) core.Outcome {
	start := time.Now()

	var body io.Reader
	if e.body != "" {
		body = strings.NewReader(e.body)
	}

	req, err := http.NewRequestWithContext(ctx, e.method, e.url, body)
	if err != nil {
		return core.Outcome{Latency: time.Since(start), Error: err.Error()}
	}

	if e.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return core.Outcome{Latency: time.Since(start), Error: err.Error()}
	}

	// Drain before measuring: latency covers the full body, and the
	// connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)

	success := isSuccess(resp.StatusCode)
	errStr := ""
	if !success {
		errStr = resp.Status
	}

	return core.Outcome{
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Success:    success,
		Error:      errStr,
	}
}
