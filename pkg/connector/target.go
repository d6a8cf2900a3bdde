package connector

import "context"

// Target supplies the per-API pieces a Connector needs on every call. Default
// headers are resolved per Send because they may depend on caller-owned state
// such as a cached bearer token; the hook may itself call Send.
type Target interface {
	ResolveBaseURL() string
	DefaultHeaders(ctx context.Context) (map[string]string, error)
}

// StaticTarget is a Target with a fixed base URL and fixed headers.
type StaticTarget struct {
	URL     string
	Headers map[string]string
}

func (t StaticTarget) ResolveBaseURL() string { return t.URL }

func (t StaticTarget) DefaultHeaders(context.Context) (map[string]string, error) {
	return t.Headers, nil
}

// HeadersFunc computes default headers for a call.
type HeadersFunc func(ctx context.Context) (map[string]string, error)

// DynamicTarget is a Target whose headers come from a function hook.
type DynamicTarget struct {
	URL         string
	HeadersFunc HeadersFunc
}

func (t DynamicTarget) ResolveBaseURL() string { return t.URL }

func (t DynamicTarget) DefaultHeaders(ctx context.Context) (map[string]string, error) {
	if t.HeadersFunc == nil {
		return nil, nil
	}
	return t.HeadersFunc(ctx)
}
