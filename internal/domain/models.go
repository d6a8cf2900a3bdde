package domain

import "time"

// Domain contains core models shared by the audit and reporting layers.

// Exchange summarizes one HTTP request/response cycle. StatusCode is 0 when no
// response was received; Err then carries the transport failure text.
type Exchange struct {
	ConnectorID string        `json:"connector_id,omitempty"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	StatusCode  int           `json:"status_code,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
	Err         string        `json:"error,omitempty"`
}

// Failed reports whether the exchange produced no response or a non-2xx status.
func (e Exchange) Failed() bool {
	return e.Err != "" || e.StatusCode < 200 || e.StatusCode > 299
}
