// Package auth provides default-header hooks that authenticate connector calls
// with state owned by the caller rather than by the connector.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samvad-hq/samvad-connector/pkg/connector"
)

const (
	HeaderAuthorization = "Authorization"
	DefaultTokenField   = "access_token"

	defaultFetchTimeout = 30 * time.Second
)

var (
	// ErrTokenMissing is returned when the token response lacks a usable token.
	ErrTokenMissing = errors.New("token missing from response")
	// ErrNotAttached is returned when no Sender was attached before first use.
	ErrNotAttached = errors.New("bearer auth has no sender attached")
)

type fetchingKey struct{}

// Bearer lazily fetches a token with TokenRequest and decorates every call
// with "Authorization: Bearer <token>". The fetch goes through the same
// Sender the headers are produced for; headers requested while that fetch is
// in flight carry the base headers only.
//
// The token is cached until Invalidate or SetToken; expiry is the caller's
// concern.
type Bearer struct {
	tokenRequest connector.Request
	tokenField   string
	base         map[string]string
	fetchTimeout time.Duration

	mu     sync.RWMutex
	sender connector.Sender
	token  string
	group  singleflight.Group
}

// Option configures a Bearer.
type Option func(*Bearer)

// WithTokenField reads the token from a dotted path in the token response,
// e.g. "data.token".
func WithTokenField(field string) Option {
	return func(b *Bearer) {
		if f := strings.TrimSpace(field); f != "" {
			b.tokenField = f
		}
	}
}

// WithFetchTimeout bounds a token fetch. The fetch is shared by concurrent
// callers, so it ignores their cancellation and stops only at this timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(b *Bearer) {
		if d > 0 {
			b.fetchTimeout = d
		}
	}
}

// WithBaseHeaders sets headers sent on every call, including the token request.
func WithBaseHeaders(headers map[string]string) Option {
	return func(b *Bearer) {
		b.base = make(map[string]string, len(headers))
		for k, v := range headers {
			b.base[k] = v
		}
	}
}

// NewBearer returns a Bearer that obtains its token with tokenRequest.
func NewBearer(tokenRequest connector.Request, opts ...Option) *Bearer {
	b := &Bearer{
		tokenRequest: tokenRequest,
		tokenField:   DefaultTokenField,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach sets the Sender used for token requests, normally the connector
// whose target uses b.DefaultHeaders.
func (b *Bearer) Attach(s connector.Sender) {
	b.mu.Lock()
	b.sender = s
	b.mu.Unlock()
}

// DefaultHeaders implements connector.HeadersFunc.
func (b *Bearer) DefaultHeaders(ctx context.Context) (map[string]string, error) {
	headers := make(map[string]string, len(b.base)+1)
	for k, v := range b.base {
		headers[k] = v
	}
	if fetching(ctx) {
		return headers, nil
	}

	token, err := b.Token(ctx)
	if err != nil {
		return nil, err
	}
	headers[HeaderAuthorization] = "Bearer " + token
	return headers, nil
}

// Token returns the cached token, fetching it on first use.
func (b *Bearer) Token(ctx context.Context) (string, error) {
	b.mu.RLock()
	token, sender := b.token, b.sender
	b.mu.RUnlock()
	if token != "" {
		return token, nil
	}
	if sender == nil {
		return "", ErrNotAttached
	}
	if b.tokenRequest == nil {
		return "", errors.New("bearer auth has no token request")
	}

	ch := b.group.DoChan("token", func() (any, error) {
		b.mu.RLock()
		cached := b.token
		b.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.fetchTimeout)
		defer cancel()
		resp, err := sender.Send(context.WithValue(fetchCtx, fetchingKey{}, true), b.tokenRequest)
		if err != nil {
			return "", fmt.Errorf("request token: %w", err)
		}
		tok, err := lookupToken(resp, b.tokenField)
		if err != nil {
			return "", err
		}
		b.SetToken(tok)
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// SetToken replaces the cached token.
func (b *Bearer) SetToken(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

// Invalidate drops the cached token so the next call fetches a new one.
func (b *Bearer) Invalidate() { b.SetToken("") }

func fetching(ctx context.Context) bool {
	v, _ := ctx.Value(fetchingKey{}).(bool)
	return v
}

func lookupToken(resp map[string]any, field string) (string, error) {
	var cur any = resp
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrTokenMissing, field)
		}
		cur = m[part]
	}
	tok, ok := cur.(string)
	if !ok || strings.TrimSpace(tok) == "" {
		return "", fmt.Errorf("%w: %q", ErrTokenMissing, field)
	}
	return tok, nil
}
