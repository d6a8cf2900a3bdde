// Package fixtures records HTTP exchanges to a store and replays them, so
// connector calls can run offline against captured responses.
package fixtures

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-connector/internal/storage"
	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
)

// Mode selects how the recorder treats the underlying transport.
type Mode string

const (
	// ModeOff passes every call through untouched.
	ModeOff Mode = "off"
	// ModeRecord calls the transport and stores each response.
	ModeRecord Mode = "record"
	// ModeReplay serves only stored responses and never calls the transport.
	ModeReplay Mode = "replay"
	// ModeAuto replays when a fixture exists and records otherwise.
	ModeAuto Mode = "auto"
)

// ErrFixtureMissing is returned in replay mode when no fixture matches a request.
var ErrFixtureMissing = errors.New("fixture missing")

// ParseMode validates a mode name. An empty name means ModeOff.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeOff, nil
	case ModeOff, ModeRecord, ModeReplay, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("unknown fixture mode %q", s)
	}
}

// Recorder is an httpclient.Client decorator backed by a storage.Store.
type Recorder struct {
	next  httpclient.Client
	store storage.Store
	mode  Mode
	log   httpclient.Logger
	now   func() time.Time
}

var _ httpclient.Client = (*Recorder)(nil)

// NewRecorder wraps next. A nil store behaves like ModeOff.
func NewRecorder(next httpclient.Client, store storage.Store, mode Mode, log httpclient.Logger) *Recorder {
	if log == nil {
		log = nopLogger{}
	}
	return &Recorder{next: next, store: store, mode: mode, log: log, now: time.Now}
}

// Mode reports the active mode.
func (r *Recorder) Mode() Mode { return r.mode }

// Do serves req according to the recorder mode.
func (r *Recorder) Do(ctx context.Context, req *httpclient.Request) (httpclient.Response, error) {
	if r.store == nil || r.mode == ModeOff || r.mode == "" {
		return r.next.Do(ctx, req)
	}

	key := Key(req)
	if r.mode == ModeReplay || r.mode == ModeAuto {
		rec, found, err := r.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("load fixture %s: %w", key, err)
		}
		if found {
			r.log.DebugObj("fixture replayed", "fixture", map[string]any{"key": key, "method": req.Method, "url": req.URL})
			return replay(rec)
		}
		if r.mode == ModeReplay {
			return nil, fmt.Errorf("%w: %s %s", ErrFixtureMissing, req.Method, req.URL)
		}
	}

	if r.next == nil {
		return nil, fmt.Errorf("%w: no transport to record from", ErrFixtureMissing)
	}
	resp, err := r.next.Do(ctx, req)
	rec, ok := r.capture(req, resp, err)
	if ok {
		if putErr := r.store.Put(key, rec); putErr != nil {
			r.log.WarnObj("fixture not saved", "fixture", map[string]any{"key": key, "error": putErr.Error()})
		} else {
			r.log.DebugObj("fixture recorded", "fixture", map[string]any{"key": key, "status": rec.StatusCode})
		}
	}
	return resp, err
}

// capture turns a transport outcome into a record. Network failures are
// never recorded.
func (r *Recorder) capture(req *httpclient.Request, resp httpclient.Response, err error) (storage.Record, bool) {
	rec := storage.Record{Method: req.Method, URL: req.URL, RecordedAt: r.now().UTC()}
	if err != nil {
		var statusErr *httpclient.StatusError
		if !errors.As(err, &statusErr) {
			return storage.Record{}, false
		}
		rec.StatusCode = statusErr.Code
		rec.Status = statusErr.Status
		rec.Body = append([]byte(nil), statusErr.Body...)
		rec.Raised = true
		return rec, true
	}
	if resp == nil {
		return storage.Record{}, false
	}
	rec.StatusCode = resp.StatusCode()
	rec.Status = resp.Status()
	rec.Header = resp.Header().Clone()
	rec.Body = append([]byte(nil), resp.Body()...)
	return rec, true
}

func replay(rec storage.Record) (httpclient.Response, error) {
	if rec.Raised {
		return nil, &httpclient.StatusError{Code: rec.StatusCode, Status: rec.Status, Body: rec.Body}
	}
	return recordedResponse{rec: rec}, nil
}

// Key identifies a request by method, URL and payload. Headers are excluded
// so rotating credentials do not invalidate fixtures.
func Key(req *httpclient.Request) string {
	h := sha1.New()
	h.Write([]byte(strings.ToUpper(req.Method)))
	h.Write([]byte{0})
	h.Write([]byte(req.URL))
	h.Write([]byte{0})
	h.Write(req.Body)
	return hex.EncodeToString(h.Sum(nil))
}

type recordedResponse struct {
	rec storage.Record
}

func (r recordedResponse) StatusCode() int { return r.rec.StatusCode }
func (r recordedResponse) Body() []byte    { return r.rec.Body }

func (r recordedResponse) Status() string {
	if r.rec.Status != "" {
		return r.rec.Status
	}
	return fmt.Sprintf("%d %s", r.rec.StatusCode, http.StatusText(r.rec.StatusCode))
}

func (r recordedResponse) Header() http.Header {
	if r.rec.Header == nil {
		return http.Header{}
	}
	return r.rec.Header
}

type nopLogger struct{}

func (nopLogger) InfoObj(string, string, interface{})  {}
func (nopLogger) DebugObj(string, string, interface{}) {}
func (nopLogger) WarnObj(string, string, interface{})  {}
func (nopLogger) ErrorObj(string, string, interface{}) {}
