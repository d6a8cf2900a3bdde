package connector

import "net/url"

const (
	HeaderContentType = "Content-Type"

	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Request describes a single API call. Implementations are values built by the
// caller for one Send and are never mutated by the connector.
//
// Endpoint is appended verbatim to the connector base URL, so it must start with
// "/" and carry any path parameters already escaped.
type Request interface {
	Endpoint() string
	Method() Method
	Headers() map[string]string
	Body() map[string]any
}

// BodyEncoder is implemented by requests that supply their own pre-formatted
// payload. The bytes are sent verbatim and no JSON Content-Type is injected.
type BodyEncoder interface {
	EncodeBody() ([]byte, error)
}

// Defaults can be embedded in a Request implementation to get empty headers
// and body.
type Defaults struct{}

func (Defaults) Headers() map[string]string { return nil }
func (Defaults) Body() map[string]any       { return nil }

// Call is a generic Request for callers that build calls at runtime.
type Call struct {
	Verb    Method
	Path    string
	Header  map[string]string
	Payload map[string]any
}

var _ Request = Call{}

func (c Call) Endpoint() string           { return c.Path }
func (c Call) Method() Method             { return c.Verb }
func (c Call) Headers() map[string]string { return c.Header }
func (c Call) Body() map[string]any       { return c.Payload }

// Form is a Request whose payload is sent as application/x-www-form-urlencoded.
type Form struct {
	Verb   Method
	Path   string
	Header map[string]string
	Fields url.Values
}

var (
	_ Request     = Form{}
	_ BodyEncoder = Form{}
)

func (f Form) Endpoint() string     { return f.Path }
func (f Form) Method() Method       { return f.Verb }
func (f Form) Body() map[string]any { return nil }

// Headers returns the caller headers with the form Content-Type unless one was
// declared explicitly.
func (f Form) Headers() map[string]string {
	out := make(map[string]string, len(f.Header)+1)
	for k, v := range f.Header {
		out[k] = v
	}
	if !newHeaderSet(out).has(HeaderContentType) {
		out[HeaderContentType] = ContentTypeForm
	}
	return out
}

func (f Form) EncodeBody() ([]byte, error) {
	if len(f.Fields) == 0 {
		return nil, nil
	}
	return []byte(f.Fields.Encode()), nil
}
