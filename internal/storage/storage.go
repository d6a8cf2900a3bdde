// Package storage keeps recorded HTTP exchanges (fixtures) on local disk.
package storage

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Record is one captured exchange. Raised marks responses the transport
// reported as a status error rather than returned.
type Record struct {
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Status     string      `json:"status"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body,omitempty"`
	Raised     bool        `json:"raised,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Store persists fixture records by key.
type Store interface {
	Close() error
	Get(key string) (Record, bool, error)
	Put(key string, rec Record) error
	Keys() ([]string, error)
	Purge() (int, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	FixtureTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultFixtureTTL      = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.FixtureTTL <= 0 {
		opts.FixtureTTL = defaultFixtureTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                     { return nil }
func (noopStore) Get(string) (Record, bool, error) { return Record{}, false, nil }
func (noopStore) Put(string, Record) error         { return nil }
func (noopStore) Keys() ([]string, error)          { return nil, nil }
func (noopStore) Purge() (int, error)              { return 0, nil }
