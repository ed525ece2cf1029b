package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/campusclinic/console/pkg/auth"
)

func newTestClient(t *testing.T, serverURL, token string) *Client {
	t.Helper()
	store := auth.NewTokenStore(filepath.Join(t.TempDir(), "token"))
	if token != "" {
		if err := store.Save(token); err != nil {
			t.Fatalf("seed token: %v", err)
		}
	}
	return New(serverURL, 0, store)
}

func TestDoFailsFastWithoutCredential(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.Do(context.Background(), http.MethodGet, "/api/patients-list", nil, "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if n := atomic.LoadInt64(&hits); n != 0 {
		t.Fatalf("server saw %d requests, want zero network calls", n)
	}
}

func TestDoAttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "tok-123")
	res, err := c.Do(context.Background(), http.MethodGet, "/x", nil, "")
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	res.Body.Close()

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReqID == "" {
		t.Error("expected an X-Request-ID header")
	}
}

func TestContentTypeNegotiation(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "tok")
	ctx := context.Background()

	// JSON body gets the JSON content type by default.
	if err := c.JSON(ctx, http.MethodPost, "/x", map[string]string{"a": "b"}, nil); err != nil {
		t.Fatalf("json post: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("json body content type = %q", gotContentType)
	}

	// GET without body carries no content type at all.
	if err := c.JSON(ctx, http.MethodGet, "/x", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotContentType != "" {
		t.Errorf("bodyless content type = %q, want none", gotContentType)
	}

	// Multipart bodies keep their own boundary content type.
	form := NewForm().Field("k", "v").File("file", "data.csv", []byte("a,b\n"))
	if err := c.Multipart(ctx, http.MethodPost, "/x", form, nil); err != nil {
		t.Fatalf("multipart: %v", err)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data; boundary=") {
		t.Errorf("multipart content type = %q", gotContentType)
	}
}

func TestNonSuccessBecomesHTTPErrorWithBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "row 4: missing last name", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "tok")
	err := c.JSON(context.Background(), http.MethodPost, "/import", nil, nil)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %T %v, want *HTTPError", err, err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d", httpErr.Status)
	}
	if httpErr.Body != "row 4: missing last name" {
		t.Errorf("body = %q, want backend text verbatim", httpErr.Body)
	}
	if !strings.Contains(err.Error(), "row 4: missing last name") {
		t.Errorf("error message %q should carry the body text", err.Error())
	}
}

func TestEmptyBodyIsSuccessfulVoid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "tok")
	var out map[string]string
	if err := c.JSON(context.Background(), http.MethodDelete, "/x", nil, &out); err != nil {
		t.Fatalf("empty body should be a successful void, got %v", err)
	}
	if out != nil {
		t.Errorf("out = %v, want untouched", out)
	}
}

func TestNonJSONResponseReturnsRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("plain result"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "tok")
	var out string
	if err := c.JSON(context.Background(), http.MethodGet, "/x", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != "plain result" {
		t.Errorf("out = %q", out)
	}
}

func TestLoginReturnsRawTokenBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("login must be unauthenticated, got %q", auth)
		}
		w.Write([]byte("aaa.bbb.ccc\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	token, err := c.Login(context.Background(), "doc", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "aaa.bbb.ccc" {
		t.Errorf("token = %q", token)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.Login(context.Background(), "doc", "wrong")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 HTTPError", err)
	}
}
