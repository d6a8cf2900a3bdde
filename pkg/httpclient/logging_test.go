package httpclient

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingLogger) add(level, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, level+":"+msg)
	r.mu.Unlock()
}

func (r *recordingLogger) InfoObj(msg, _ string, _ interface{})  { r.add("info", msg) }
func (r *recordingLogger) DebugObj(msg, _ string, _ interface{}) { r.add("debug", msg) }
func (r *recordingLogger) WarnObj(msg, _ string, _ interface{})  { r.add("warn", msg) }
func (r *recordingLogger) ErrorObj(msg, _ string, _ interface{}) { r.add("error", msg) }

func TestWithLoggingLevels(t *testing.T) {
	log := &recordingLogger{}
	client := WithLogging(NewMockClient(
		TextResponse(200, "{}"),
		TextResponse(404, "missing"),
		MockResponse{Err: errors.New("refused")},
	), log)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = client.Do(ctx, &Request{Method: "GET", URL: "https://x.test"})
	}

	want := []string{
		"debug:http exchange completed",
		"info:http exchange returned error status",
		"warn:http exchange failed",
	}
	if len(log.entries) != len(want) {
		t.Fatalf("entries = %#v", log.entries)
	}
	for i := range want {
		if log.entries[i] != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, log.entries[i], want[i])
		}
	}
}

func TestWithLoggingNilLogger(t *testing.T) {
	client := WithLogging(NewMockClient(TextResponse(200, "")), nil)
	if _, err := client.Do(context.Background(), &Request{Method: "GET"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
}
