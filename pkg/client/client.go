package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusclinic/console/pkg/auth"
	"github.com/campusclinic/console/pkg/common/logger"
)

// Client issues requests against the clinic backend, decorated with the
// bearer credential from the token store. It does not retry and it does not
// interpret response statuses beyond converting non-2xx into *HTTPError.
// In particular a 401 never triggers a logout here; callers handle failures
// locally.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  *auth.TokenStore
}

func New(baseURL string, timeout time.Duration, tokens *auth.TokenStore) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout, Transport: transport},
		tokens:  tokens,
	}
}

// Do performs an authenticated request. It fails with ErrUnauthenticated
// before any network call when the store holds no credential. A JSON content
// type is set unless the caller supplied one (multipart and binary bodies
// pass their own). The raw response is propagated; the caller closes it.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	token := c.tokens.Read()
	if token == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	switch {
	case contentType != "":
		req.Header.Set("Content-Type", contentType)
	case body != nil:
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Log.WithFields(map[string]interface{}{
		"method": method,
		"path":   path,
	}).Debug("api request")

	return c.httpc.Do(req)
}

// JSON performs a request with an optional JSON body and decodes the
// response. Content negotiation: a JSON content type is parsed as JSON;
// anything else is returned as raw text when out is a *string; an empty body
// is a successful void result.
func (c *Client) JSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	res, err := c.Do(ctx, method, path, body, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return decodeResponse(res, out)
}

// Multipart sends a multipart/form-data body, used by the visit create and
// update endpoints and the CSV imports.
func (c *Client) Multipart(ctx context.Context, method, path string, form *Form, out interface{}) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return err
	}

	res, err := c.Do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return decodeResponse(res, out)
}

// Download fetches an opaque binary export and writes it to dir under the
// given filename. No return value beyond the error; no retry.
func (c *Client) Download(ctx context.Context, path, dir, filename string) error {
	res, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errorFromResponse(res)
	}

	target := filepath.Join(dir, filename)
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, res.Body); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// Login is the single unauthenticated call. A 200 response body is the raw
// credential string (not JSON-wrapped); any other status means invalid
// credentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", errorFromResponse(res)
	}

	token, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(token)), nil
}

func decodeResponse(res *http.Response, out interface{}) error {
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errorFromResponse(res)
	}
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		// Several mutation endpoints return empty bodies on success.
		return nil
	}

	if strings.Contains(res.Header.Get("Content-Type"), "json") {
		return json.Unmarshal(body, out)
	}
	if text, ok := out.(*string); ok {
		*text = string(body)
		return nil
	}
	return fmt.Errorf("unexpected content type %q", res.Header.Get("Content-Type"))
}
