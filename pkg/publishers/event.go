package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-connector/internal/domain"
)

// Event represents the audit record published downstream.
type Event struct {
	ID         string          `json:"id"`
	Exchange   domain.Exchange `json:"exchange"`
	ObservedAt time.Time       `json:"observed_at"`
}

// NewEvent constructs an Event for the given exchange.
func NewEvent(ex domain.Exchange) Event {
	return Event{
		ID:         uuid.NewString(),
		Exchange:   ex,
		ObservedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue-style sinks.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"event_id": e.ID,
		"method":   e.Exchange.Method,
	}
	if e.Exchange.ConnectorID != "" {
		attrs["connector_id"] = e.Exchange.ConnectorID
	}
	return attrs
}
