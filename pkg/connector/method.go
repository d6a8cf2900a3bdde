package connector

import (
	"fmt"
	"strings"
)

// Method is an HTTP verb accepted by the connector.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

var methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodHead,
	MethodOptions,
}

// Methods returns every supported verb.
func Methods() []Method {
	out := make([]Method, len(methods))
	copy(out, methods)
	return out
}

func (m Method) String() string { return string(m) }

// Valid reports whether m is one of the supported verbs.
func (m Method) Valid() bool {
	for _, known := range methods {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMethod resolves a verb token, ignoring case and surrounding spaces.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported http method %q", s)
	}
	return m, nil
}
