package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/samvad-connector/pkg/connector"
	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
)

func TestAuditClientPublishesExchange(t *testing.T) {
	sink := &stubPublisher{id: "sink", typ: "test"}
	mock := httpclient.NewMockClient(httpclient.JSONResponse(201, map[string]any{"id": 7}))
	client := NewAuditClient(mock, NewFanout([]Publisher{sink}), "menu", nil)

	conn, err := connector.New(connector.StaticTarget{URL: "https://api.example.test"}, client)
	if err != nil {
		t.Fatalf("connector.New: %v", err)
	}
	if _, err := conn.Send(context.Background(), connector.Call{Verb: connector.MethodPost, Path: "/orders", Payload: map[string]any{"qty": 1}}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	ex := sink.events[0].Exchange
	if ex.ConnectorID != "menu" || ex.Method != "POST" || ex.URL != "https://api.example.test/orders" || ex.StatusCode != 201 {
		t.Fatalf("unexpected exchange %#v", ex)
	}
	if sink.events[0].ID == "" {
		t.Fatalf("event id not set")
	}
}

func TestAuditClientRecordsRaisedStatus(t *testing.T) {
	sink := &stubPublisher{id: "sink", typ: "test"}
	mock := httpclient.NewMockClient(httpclient.TextResponse(503, "down"))
	mock.RaiseForStatus = true
	client := NewAuditClient(mock, NewFanout([]Publisher{sink}), "", nil)

	_, err := client.Do(context.Background(), &httpclient.Request{Method: "GET", URL: "https://x.test"})
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	ex := sink.events[0].Exchange
	if ex.StatusCode != 503 || ex.Err == "" || !ex.Failed() {
		t.Fatalf("unexpected exchange %#v", ex)
	}
}

func TestAuditClientPublishFailureDoesNotChangeOutcome(t *testing.T) {
	failing := &stubPublisher{id: "bad", typ: "test", err: errors.New("sink down")}
	mock := httpclient.NewMockClient(httpclient.TextResponse(200, `{"ok":true}`))
	client := NewAuditClient(mock, NewFanout([]Publisher{failing}), "menu", nil)

	resp, err := client.Do(context.Background(), &httpclient.Request{Method: "GET", URL: "https://x.test"})
	if err != nil || resp.StatusCode() != 200 {
		t.Fatalf("audit failure leaked into the exchange: %v", err)
	}
}

func TestAuditClientPublishesAfterCancellation(t *testing.T) {
	sink := &stubPublisher{id: "sink", typ: "test"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewAuditClient(httpclient.NewMockClient(httpclient.TextResponse(200, "")), NewFanout([]Publisher{sink}), "menu", nil)
	if _, err := client.Do(ctx, &httpclient.Request{Method: "GET", URL: "https://x.test"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Exchange.Err == "" {
		t.Fatalf("cancelled exchange should still be audited: %#v", sink.events)
	}
}
