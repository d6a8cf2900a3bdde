package httpclient

import (
	"context"
	"errors"
	"testing"
)

func TestMockClientSequenceRepeatsLast(t *testing.T) {
	m := NewMockClient(TextResponse(200, "first"), TextResponse(201, "second"))
	ctx := context.Background()

	for i, want := range []string{"first", "second", "second"} {
		resp, err := m.Do(ctx, &Request{Method: "GET", URL: "https://x.test/a"})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if string(resp.Body()) != want {
			t.Fatalf("call %d body = %q, want %q", i, resp.Body(), want)
		}
	}
	if len(m.Requests()) != 3 {
		t.Fatalf("expected 3 recorded requests")
	}
}

func TestMockClientRoutesTakePrecedence(t *testing.T) {
	m := NewMockClient(TextResponse(500, "fallback")).
		On("get", "https://x.test/menu", JSONResponse(200, map[string]any{"ok": true}))

	resp, err := m.Do(context.Background(), &Request{Method: "GET", URL: "https://x.test/menu"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("body = %q", resp.Body())
	}
	if resp.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("missing content type")
	}
}

func TestMockClientWithoutScriptFails(t *testing.T) {
	_, err := NewMockClient().Do(context.Background(), &Request{Method: "GET", URL: "https://x.test"})
	if !errors.Is(err, ErrNoMockResponse) {
		t.Fatalf("expected ErrNoMockResponse, got %v", err)
	}
}

func TestMockClientCopiesRecordedRequests(t *testing.T) {
	m := NewMockClient(TextResponse(200, ""))
	req := &Request{Method: "POST", URL: "https://x.test", Headers: map[string]string{"A": "1"}, Body: []byte("x")}
	if _, err := m.Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	req.Headers["A"] = "2"
	req.Body[0] = 'y'

	got, ok := m.LastRequest()
	if !ok || got.Headers["A"] != "1" || string(got.Body) != "x" {
		t.Fatalf("recorded request was mutated: %#v", got)
	}
}

func TestMockClientCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockClient(TextResponse(200, "")).Do(ctx, &Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
