package publishers

import (
	"context"
	"errors"
	"time"

	"github.com/samvad-hq/samvad-connector/internal/domain"
	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
)

const auditPublishTimeout = 5 * time.Second

// Dispatcher publishes one event to any number of sinks.
type Dispatcher interface {
	Publish(ctx context.Context, evt Event) (int, error)
}

// AuditClient decorates a transport and publishes an Event for every
// exchange. Publish failures are logged and never change the exchange result.
type AuditClient struct {
	next        httpclient.Client
	dispatch    Dispatcher
	connectorID string
	log         Logger
	now         func() time.Time
}

var _ httpclient.Client = (*AuditClient)(nil)

// NewAuditClient wraps next. connectorID tags every event.
func NewAuditClient(next httpclient.Client, dispatch Dispatcher, connectorID string, log Logger) *AuditClient {
	return &AuditClient{
		next:        next,
		dispatch:    dispatch,
		connectorID: connectorID,
		log:         ensureLogger(log),
		now:         time.Now,
	}
}

// Do performs the exchange and then publishes its summary.
func (a *AuditClient) Do(ctx context.Context, req *httpclient.Request) (httpclient.Response, error) {
	start := a.now()
	resp, err := a.next.Do(ctx, req)

	if a.dispatch != nil {
		a.publish(ctx, exchangeOf(a.connectorID, req, resp, err, a.now().Sub(start)))
	}
	return resp, err
}

func (a *AuditClient) publish(ctx context.Context, ex domain.Exchange) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditPublishTimeout)
	defer cancel()

	evt := NewEvent(ex)
	if _, err := a.dispatch.Publish(pubCtx, evt); err != nil {
		a.log.WarnObj("audit event not delivered", "audit_publish_error", map[string]any{
			"event_id":     evt.ID,
			"connector_id": ex.ConnectorID,
			"error":        err.Error(),
		})
	}
}

func exchangeOf(connectorID string, req *httpclient.Request, resp httpclient.Response, err error, elapsed time.Duration) domain.Exchange {
	ex := domain.Exchange{
		ConnectorID: connectorID,
		Method:      req.Method,
		URL:         req.URL,
		Elapsed:     elapsed,
	}
	if resp != nil {
		ex.StatusCode = resp.StatusCode()
	}
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			ex.StatusCode = statusErr.Code
		}
		ex.Err = err.Error()
	}
	return ex
}
