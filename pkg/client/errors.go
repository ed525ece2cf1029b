package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthenticated means no credential was available when a gated call was
// attempted. It is returned before any network I/O happens.
var ErrUnauthenticated = errors.New("client: no authentication token found")

// HTTPError carries a non-2xx response: the status code and the backend's
// error body text, best effort (the body may be empty).
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Body)
}

// errorFromResponse drains the body into an HTTPError. Callers own closing
// the response afterwards.
func errorFromResponse(res *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	return &HTTPError{
		Status: res.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}
