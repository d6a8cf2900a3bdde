package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Request is the outbound message handed to a transport.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	StatusCode() int
	// Status is the transport's status line, e.g. "404 Not Found".
	Status() string
	Header() http.Header
	Body() []byte
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// A Client returns an error only when no response was obtained, unless it is
// configured to raise on 4xx/5xx, in which case it returns a *StatusError.
type Client interface {
	Do(ctx context.Context, req *Request) (Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (Response, error)

func (f ClientFunc) Do(ctx context.Context, req *Request) (Response, error) { return f(ctx, req) }

// StatusError is returned by raise-for-status transports when the server
// answered with a 4xx or 5xx status.
type StatusError struct {
	Code   int
	Status string
	Body   []byte
}

func (e *StatusError) Error() string {
	status := strings.TrimSpace(e.Status)
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return "unexpected response status " + status
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool { return code >= 200 && code < 300 }
