package httpexec

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{301, true},
		{399, true},
		{400, false},
		{404, false},
		{500, false},
		{0, false},
	}

	for _, tt := range tests {
		if got := isSuccess(tt.code); got != tt.want {
			t.Errorf("isSuccess(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestExecute_StatusClassification(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := 200
		switch r.URL.Path {
		case "/bad":
			code = 400
		case "/boom":
			code = 500
		}
		w.WriteHeader(code)
	}))
	defer ts.Close()

	client := NewClient(5*time.Second, 10)

	tests := []struct {
		path        string
		wantCode    int
		wantSuccess bool
	}{
		{"/", 200, true},
		{"/bad", 400, false},
		{"/boom", 500, false},
	}

	for _, tt := range tests {
		e := New(client, "GET", ts.URL+tt.path, nil, "")
		out := e.Execute(context.Background())

		if out.StatusCode != tt.wantCode {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.wantCode, out.StatusCode)
		}
		if out.Success != tt.wantSuccess {
			t.Errorf("%s: expected success=%v, got %v", tt.path, tt.wantSuccess, out.Success)
		}
		if !tt.wantSuccess && out.Error == "" {
			t.Errorf("%s: expected error text on failure", tt.path)
		}
	}
}

func TestExecute_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close() // guaranteed connection refused

	e := New(NewClient(time.Second, 1), "GET", url, nil, "")
	out := e.Execute(context.Background())

	if out.StatusCode != 0 {
		t.Errorf("expected status 0 for transport error, got %d", out.StatusCode)
	}
	if out.Success {
		t.Error("transport error must not be a success")
	}
	if out.Error == "" {
		t.Error("expected error text for transport error")
	}
}

func TestExecute_LatencyCoversBody(t *testing.T) {
	const delay = 30 * time.Millisecond
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Write([]byte("slow response"))
	}))
	defer ts.Close()

	e := New(NewClient(5*time.Second, 1), "GET", ts.URL, nil, "")
	out := e.Execute(context.Background())

	if !out.Success {
		t.Fatalf("unexpected failure: %+v", out)
	}
	if out.Latency < delay {
		t.Errorf("latency %v shorter than handler delay %v", out.Latency, delay)
	}
}

func TestExecute_SendsBodyAndHeaders(t *testing.T) {
	var gotBody string
	var gotContentType, gotCustom string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Token")
	}))
	defer ts.Close()

	headers := map[string]string{"X-Token": "secret"}
	e := New(NewClient(5*time.Second, 1), "POST", ts.URL, headers, `{"key":"value"}`)
	out := e.Execute(context.Background())

	if !out.Success {
		t.Fatalf("unexpected failure: %+v", out)
	}
	if gotBody != `{"key":"value"}` {
		t.Errorf("unexpected body: %q", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type by default, got %q", gotContentType)
	}
	if gotCustom != "secret" {
		t.Errorf("expected custom header, got %q", gotCustom)
	}
}

func TestExecute_HeadersOverrideContentType(t *testing.T) {
	var gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer ts.Close()

	headers := map[string]string{"Content-Type": "text/plain"}
	e := New(NewClient(5*time.Second, 1), "POST", ts.URL, headers, "raw body")
	e.Execute(context.Background())

	if gotContentType != "text/plain" {
		t.Errorf("configured header should win, got %q", gotContentType)
	}
}
