package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// ErrNoMockResponse is returned when a MockClient has nothing scripted for a request.
var ErrNoMockResponse = errors.New("no mock response scripted")

// MockResponse is a scripted reply. A non-nil Err simulates a network failure.
type MockResponse struct {
	Code    int
	Headers http.Header
	Payload []byte
	Err     error
}

// JSONResponse builds a MockResponse with v encoded as JSON.
func JSONResponse(code int, v any) MockResponse {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("httpclient: marshal mock body: %v", err))
	}
	return MockResponse{
		Code:    code,
		Headers: http.Header{"Content-Type": []string{"application/json"}},
		Payload: raw,
	}
}

// TextResponse builds a MockResponse with a raw body.
func TextResponse(code int, body string) MockResponse {
	return MockResponse{Code: code, Payload: []byte(body)}
}

func (m MockResponse) StatusCode() int { return m.Code }
func (m MockResponse) Body() []byte    { return m.Payload }

func (m MockResponse) Status() string {
	return fmt.Sprintf("%d %s", m.Code, http.StatusText(m.Code))
}

func (m MockResponse) Header() http.Header {
	if m.Headers == nil {
		return http.Header{}
	}
	return m.Headers
}

// MockClient is an in-memory transport. Routes registered with On take
// precedence; otherwise queued responses are served in order, the last one
// repeating once the queue is drained.
type MockClient struct {
	// RaiseForStatus mimics transports that fail on 4xx/5xx.
	RaiseForStatus bool

	mu       sync.Mutex
	routes   map[string]MockResponse
	queue    []MockResponse
	requests []Request
}

var _ Client = (*MockClient)(nil)

// NewMockClient returns a MockClient serving responses in sequence.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{
		routes: make(map[string]MockResponse),
		queue:  append([]MockResponse(nil), responses...),
	}
}

// On scripts resp for an exact method and URL.
func (m *MockClient) On(method, url string, resp MockResponse) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.routes == nil {
		m.routes = make(map[string]MockResponse)
	}
	m.routes[routeKey(method, url)] = resp
	return m
}

// Do records req and returns the scripted response.
func (m *MockClient) Do(ctx context.Context, req *Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, cloneRequest(req))
	resp, ok := m.next(req)
	raise := m.RaiseForStatus
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoMockResponse, req.Method, req.URL)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	if raise && resp.Code >= 400 {
		return nil, &StatusError{Code: resp.Code, Status: resp.Status(), Body: resp.Payload}
	}
	return resp, nil
}

func (m *MockClient) next(req *Request) (MockResponse, bool) {
	if resp, ok := m.routes[routeKey(req.Method, req.URL)]; ok {
		return resp, true
	}
	switch len(m.queue) {
	case 0:
		return MockResponse{}, false
	case 1:
		return m.queue[0], true
	default:
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, true
	}
}

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request.
func (m *MockClient) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}

func routeKey(method, url string) string {
	return strings.ToUpper(method) + " " + url
}

func cloneRequest(req *Request) Request {
	out := Request{Method: req.Method, URL: req.URL}
	if req.Headers != nil {
		out.Headers = make(map[string]string, len(req.Headers))
		for k, v := range req.Headers {
			out.Headers[k] = v
		}
	}
	if req.Body != nil {
		out.Body = append([]byte(nil), req.Body...)
	}
	return out
}
