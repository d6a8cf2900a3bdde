package connector

import (
	"errors"
	"fmt"
	"strings"
)

// EncodingError reports a request body that could not be serialized. No network
// call is made when it is returned.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode request body: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// TransportError reports an exchange that produced no response (DNS, connect,
// timeout, cancellation).
type TransportError struct {
	Method Method
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError reports a response with a non-2xx status.
type HTTPError struct {
	StatusCode int
	// Body is the raw response text, possibly empty.
	Body string
	// Message is the transport's own description, used when Body is empty.
	Message string
}

func (e *HTTPError) Error() string {
	detail := strings.TrimSpace(e.Body)
	if detail == "" {
		detail = strings.TrimSpace(e.Message)
	}
	if detail == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, detail)
}

// DecodingError reports a response body that is present but not valid JSON.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode response body: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// IsEncoding reports whether err is or wraps an EncodingError.
func IsEncoding(err error) bool {
	var e *EncodingError
	return errors.As(err, &e)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsDecoding reports whether err is or wraps a DecodingError.
func IsDecoding(err error) bool {
	var e *DecodingError
	return errors.As(err, &e)
}

// AsHTTPError extracts an HTTPError from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	var e *HTTPError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := AsHTTPError(err); ok {
		return e.StatusCode
	}
	return 0
}
