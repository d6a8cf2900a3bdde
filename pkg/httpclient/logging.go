package httpclient

import (
	"context"
	"time"
)

// Logger defines the logging surface the transport decorators rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

type loggingClient struct {
	next Client
	log  Logger
}

// WithLogging wraps next so every exchange is logged with its method, URL,
// status and latency. Header values and bodies are never logged.
func WithLogging(next Client, log Logger) Client {
	if next == nil {
		return nil
	}
	return &loggingClient{next: next, log: ensureLogger(log)}
}

func (l *loggingClient) Do(ctx context.Context, req *Request) (Response, error) {
	start := time.Now()
	resp, err := l.next.Do(ctx, req)

	fields := map[string]any{
		"method":     req.Method,
		"url":        req.URL,
		"body_bytes": len(req.Body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.log.WarnObj("http exchange failed", "http_exchange", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode()
	fields["response_bytes"] = len(resp.Body())
	if IsSuccess(resp.StatusCode()) {
		l.log.DebugObj("http exchange completed", "http_exchange", fields)
	} else {
		l.log.InfoObj("http exchange returned error status", "http_exchange", fields)
	}
	return resp, nil
}
