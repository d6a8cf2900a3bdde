package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-connector/internal/config"
	"github.com/samvad-hq/samvad-connector/internal/logger"
	"github.com/samvad-hq/samvad-connector/internal/storage"
	"github.com/samvad-hq/samvad-connector/pkg/connector"
	"github.com/samvad-hq/samvad-connector/pkg/connectors"
	"github.com/samvad-hq/samvad-connector/pkg/fixtures"
	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
	"github.com/samvad-hq/samvad-connector/pkg/publishers"
)

// TransportFactory builds the base transport for one connector definition.
type TransportFactory func(def connectors.Definition) httpclient.Client

// Runtime wires configuration, connector definitions, the fixture store and
// the audit fanout into ready connectors. Connectors are built once per id and
// reused.
type Runtime struct {
	cfg       *config.Config
	log       logger.Logger
	registry  *connectors.Registry
	store     storage.Store
	mode      fixtures.Mode
	fanout    *publishers.Fanout
	transport TransportFactory

	mu    sync.Mutex
	built map[string]*connectors.Built
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithTransport replaces the resty transport, mainly for tests.
func WithTransport(f TransportFactory) Option {
	return func(r *Runtime) {
		if f != nil {
			r.transport = f
		}
	}
}

// WithRegistry supplies connector definitions instead of reading connectors_file.
func WithRegistry(reg *connectors.Registry) Option {
	return func(r *Runtime) { r.registry = reg }
}

// WithFanout supplies the audit fanout instead of reading publishers_file.
func WithFanout(f *publishers.Fanout) Option {
	return func(r *Runtime) { r.fanout = f }
}

// NewRuntime builds a runtime from cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := &Runtime{
		cfg:   cfg,
		log:   log,
		built: make(map[string]*connectors.Built),
	}
	r.transport = r.restyTransport
	for _, opt := range opts {
		opt(r)
	}

	if r.registry == nil {
		reg, err := connectors.LoadRegistry(cfg.ConnectorsFile)
		if err != nil {
			return nil, fmt.Errorf("load connectors registry: %w", err)
		}
		r.registry = reg
	}
	log.InfoObj("connectors registry loaded", "connectors_meta", map[string]any{
		"count": len(r.registry.IDs()),
		"ids":   r.registry.IDs(),
	})

	mode, err := fixtures.ParseMode(cfg.FixtureMode)
	if err != nil {
		return nil, err
	}
	r.mode = mode

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		FixtureTTL:      cfg.FixtureTTL,
		CleanupInterval: cfg.FixtureCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	r.store = store

	if cfg.AuditEnabled && r.fanout == nil {
		fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
		if err != nil {
			store.Close()
			return nil, err
		}
		r.fanout = fanout
	}

	return r, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("audit enabled but no publishers configured")
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

func (r *Runtime) restyTransport(def connectors.Definition) httpclient.Client {
	opts := def.TransportOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = r.cfg.HTTPTimeout
	}
	opts.UserAgent = r.cfg.UserAgent
	return httpclient.NewRestyClientWithOptions(opts)
}

// Registry returns the loaded connector definitions.
func (r *Runtime) Registry() *connectors.Registry { return r.registry }

// Store returns the fixture store.
func (r *Runtime) Store() storage.Store { return r.store }

// Connector returns the connector for id, building its transport stack on
// first use: base transport, exchange logging, fixtures, then audit.
func (r *Runtime) Connector(id string) (*connectors.Built, error) {
	id = strings.TrimSpace(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.built[id]; ok {
		return b, nil
	}

	def, ok := r.registry.ByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown connector %q", id)
	}

	var client httpclient.Client = httpclient.WithLogging(r.transport(def), r.log)
	if r.mode != fixtures.ModeOff {
		client = fixtures.NewRecorder(client, r.store, r.mode, r.log)
	}
	if r.fanout != nil && r.fanout.Size() > 0 {
		client = publishers.NewAuditClient(client, r.fanout, def.ID, r.log)
	}

	built, err := connectors.Build(def, client)
	if err != nil {
		return nil, err
	}
	r.built[id] = built
	return built, nil
}

// Send dispatches req through the connector named id.
func (r *Runtime) Send(ctx context.Context, id string, req connector.Request) (map[string]any, error) {
	built, err := r.Connector(id)
	if err != nil {
		return nil, err
	}
	return built.Connector.Send(ctx, req)
}

// Close releases the fixture store and audit publishers.
func (r *Runtime) Close() error {
	var errs []error
	if r.fanout != nil {
		if err := r.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
