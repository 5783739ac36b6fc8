package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
)

// DefaultSystemsGroup is the privileged group whose members may obtain
// impersonation contexts via AuthFor.
const DefaultSystemsGroup = "systems"

// Engine is the directory engine. It is safe for concurrent use; all shared
// state lives behind the storage backend and the audit logger.
type Engine struct {
	backend storage.Backend
	keys    storage.KeySpace
	log     *observability.Logger
	audit   audit.Logger
	metrics *observability.Metrics

	jwtSecret []byte
	jwtIssuer string
	jwtTTL    time.Duration

	systemsGroup string

	now func() time.Time

	authenticators []authenticatorFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeyPrefix roots the engine's key layout under prefix.
func WithKeyPrefix(prefix string) Option {
	return func(e *Engine) { e.keys = storage.NewKeySpace(prefix) }
}

// WithLogger sets the structured logger.
func WithLogger(log *observability.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithAuditLogger sets the audit event destination.
func WithAuditLogger(a audit.Logger) Option {
	return func(e *Engine) { e.audit = a }
}

// WithMetrics wires Prometheus counters into the engine.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithJWT configures bearer-token signing.
func WithJWT(secret []byte, issuer string, ttl time.Duration) Option {
	return func(e *Engine) {
		e.jwtSecret = secret
		e.jwtIssuer = issuer
		e.jwtTTL = ttl
	}
}

// WithSystemsGroup names the privileged group consulted by AuthFor.
func WithSystemsGroup(id string) Option {
	return func(e *Engine) { e.systemsGroup = id }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine over the given backend.
func New(backend storage.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:      backend,
		keys:         storage.NewKeySpace(""),
		log:          observability.NewLogger(observability.InfoLevel, io.Discard),
		audit:        audit.NopLogger{},
		jwtIssuer:    "warden",
		jwtTTL:       time.Hour,
		systemsGroup: DefaultSystemsGroup,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.authenticators = []authenticatorFunc{
		e.authenticateAPIKey,
		e.authenticateToken,
		e.authenticatePassword,
	}
	return e
}

// Keys exposes the engine's key layout, for callers that persist documents
// the engine hands back in serialized form.
func (e *Engine) Keys() storage.KeySpace { return e.keys }

// Backend-access helpers. Unexpected I/O failures wrap as
// ServiceUnavailableError; the port's sentinel errors pass through for the
// callers to map onto the directory taxonomy.

func (e *Engine) load(ctx context.Context, op, key string) ([]byte, error) {
	start := time.Now()
	doc, err := e.backend.Load(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, directory.Unavailable(op, err)
	}
	e.observeStorage("load", start, err)
	return doc, err
}

func (e *Engine) store(ctx context.Context, op, key string, doc []byte) error {
	start := time.Now()
	err := e.backend.Store(ctx, key, doc)
	if err != nil && !errors.Is(err, storage.ErrReadOnly) {
		err = directory.Unavailable(op, err)
	}
	e.observeStorage("store", start, err)
	return err
}

func (e *Engine) create(ctx context.Context, op, key string, doc []byte) error {
	start := time.Now()
	err := e.backend.Create(ctx, key, doc)
	if err != nil && !errors.Is(err, storage.ErrKeyExists) && !errors.Is(err, storage.ErrReadOnly) {
		err = directory.Unavailable(op, err)
	}
	e.observeStorage("create", start, err)
	return err
}

func (e *Engine) delete(ctx context.Context, op, key string) error {
	start := time.Now()
	err := e.backend.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrReadOnly) {
		err = directory.Unavailable(op, err)
	}
	e.observeStorage("delete", start, err)
	return err
}

func (e *Engine) listKeys(ctx context.Context, op, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := e.backend.ListKeysBelow(ctx, prefix)
	if err != nil {
		return nil, directory.Unavailable(op, err)
	}
	e.observeStorage("list", start, nil)
	return keys, nil
}

func (e *Engine) observeStorage(operation string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.StorageOperationsTotal.WithLabelValues(operation, outcome).Inc()
	e.metrics.StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
