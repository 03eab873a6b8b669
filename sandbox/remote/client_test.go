package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPClientExecute(t *testing.T) {
	var gotPath, gotType string
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{
			Stdout:    "out\n",
			SandboxID: "sb-42",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	resp, err := c.Execute(context.Background(), Request{
		RequestID:     "req-1",
		Code:          "print(1)",
		Language:      "python",
		TimeoutMillis: 2000,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if gotPath != "POST /executions" {
		t.Errorf("request = %q, want POST /executions", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if gotReq.RequestID != "req-1" || gotReq.Language != "python" || gotReq.TimeoutMillis != 2000 {
		t.Errorf("decoded request = %+v", gotReq)
	}
	if resp.Stdout != "out\n" || resp.SandboxID != "sb-42" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHTTPClientSendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Response{})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, WithToken("tok-1"))
	if _, err := c.Execute(context.Background(), Request{RequestID: "r"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
}

func TestHTTPClientExecuteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sandbox pool exhausted", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.Execute(context.Background(), Request{RequestID: "r"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Execute() error = %v, want ErrServiceUnavailable", err)
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "sandbox pool exhausted") {
		t.Errorf("Execute() error = %v, want status and body", err)
	}
}

func TestHTTPClientExecuteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.Execute(context.Background(), Request{RequestID: "r"})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("Execute() error = %v, want decode error", err)
	}
}

func TestHTTPClientExecuteUnreachable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1")
	_, err := c.Execute(context.Background(), Request{RequestID: "r"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Execute() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestHTTPClientCancel(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	if err := c.Cancel(context.Background(), "req-9"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if gotPath != "DELETE /executions/req-9" {
		t.Errorf("request = %q, want DELETE /executions/req-9", gotPath)
	}
}

func TestHTTPClientCancelNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	if err := c.Cancel(context.Background(), "gone"); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Cancel() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestHTTPClientEndpointTrimsSlash(t *testing.T) {
	c := NewHTTPClient("http://svc.internal/")
	if got := c.Endpoint(); got != "http://svc.internal" {
		t.Errorf("Endpoint() = %q, want trailing slash trimmed", got)
	}
}
