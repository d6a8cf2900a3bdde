// Package connector is a transport-agnostic REST client core. Callers describe
// calls as Request values and dispatch them through a Connector, which merges
// headers, encodes the body, performs the exchange through an injected
// httpclient.Client and returns the response as a map, or one of EncodingError,
// TransportError, HTTPError and DecodingError.
package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
)

// Sender dispatches a Request and returns the normalized response.
type Sender interface {
	Send(ctx context.Context, req Request) (map[string]any, error)
}

// Connector sends Requests to one target API. It holds no per-call state, so a
// single instance may be shared by concurrent callers when its transport and
// target hooks allow it.
type Connector struct {
	target Target
	client httpclient.Client
}

var _ Sender = (*Connector)(nil)

// New builds a Connector for target using client as transport.
func New(target Target, client httpclient.Client) (*Connector, error) {
	if target == nil {
		return nil, errors.New("connector target must not be nil")
	}
	if client == nil {
		return nil, errors.New("connector http client must not be nil")
	}
	return &Connector{target: target, client: client}, nil
}

// BaseURL returns the target base URL without a trailing slash.
func (c *Connector) BaseURL() string {
	return strings.TrimRight(c.target.ResolveBaseURL(), "/")
}

// Send performs one request/response cycle.
//
// Non-2xx responses fail with *HTTPError whether the transport returned the
// response or raised a *httpclient.StatusError. An empty 2xx body yields an
// empty map; JSON arrays and scalars are wrapped as {"data": value}.
func (c *Connector) Send(ctx context.Context, req Request) (map[string]any, error) {
	if req == nil {
		return nil, errors.New("connector request must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	url := c.BaseURL() + req.Endpoint()
	method := req.Method()

	defaults, err := c.target.DefaultHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve default headers: %w", err)
	}
	headers := newHeaderSet(defaults)
	headers.merge(req.Headers())

	payload, err := encodeBody(req, headers)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(ctx, &httpclient.Request{
		Method:  method.String(),
		URL:     url,
		Headers: headers.toMap(),
		Body:    payload,
	})
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, &HTTPError{
				StatusCode: statusErr.Code,
				Body:       string(statusErr.Body),
				Message:    statusErr.Error(),
			}
		}
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	if !httpclient.IsSuccess(resp.StatusCode()) {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
			Message:    resp.Status(),
		}
	}

	return decodeBody(resp.Body())
}

// encodeBody produces the outbound payload. Pre-formatted payloads from a
// BodyEncoder are sent as-is; otherwise a non-empty Body() is JSON-encoded and
// Content-Type defaults to application/json.
func encodeBody(req Request, headers *headerSet) ([]byte, error) {
	if enc, ok := req.(BodyEncoder); ok {
		raw, err := enc.EncodeBody()
		if err != nil {
			return nil, &EncodingError{Err: err}
		}
		return raw, nil
	}

	body := req.Body()
	if len(body) == 0 {
		return nil, nil
	}
	if !headers.has(HeaderContentType) {
		headers.set(HeaderContentType, ContentTypeJSON)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	return raw, nil
}
