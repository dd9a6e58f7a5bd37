// Package taxonomy resolves a type's authored label schema into pickable
// groups and suggests linked records from other entity collections.
//
// Resolution is a pipeline over a types.Store:
//
//	CollectGroups  property definitions + legacy label folders -> base groups
//	Expand         caller selections reveal nested child groups
//	Suggest        link targets scoped by the selection path -> candidates
//
// Nothing is cached between calls and no call fails loudly: missing or
// malformed data degrades to fewer options or suggestions.
package taxonomy

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/taxon/internal/secrets"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

const tracerName = "github.com/mesh-intelligence/taxon/internal/taxonomy"

// Engine resolves schemas against a Store. It holds no per-call state and
// is safe for concurrent use when the Store is.
type Engine struct {
	store    types.Store
	secrets  types.SecretLookup
	client   *http.Client
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	timeout  time.Duration
	maxDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSecrets sets the lookup used for external API bearer tokens.
func WithSecrets(s types.SecretLookup) Option {
	return func(e *Engine) {
		if s != nil {
			e.secrets = s
		}
	}
}

// WithHTTPClient replaces the HTTP client used by external API sources.
// The engine's timeout still bounds every call through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer replaces the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New returns an Engine over store. The timeout and depth cap come from cfg;
// zero values fall back to the package defaults.
func New(store types.Store, cfg types.Config, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		timeout:  cfg.Timeout(),
		maxDepth: cfg.Depth(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.secrets == nil {
		e.secrets = secrets.New("", e.logger)
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: e.timeout}
	}
	return e
}

// Store returns the store the engine reads.
func (e *Engine) Store() types.Store {
	return e.store
}

// Resolution is the engine's answer for one type and selection state.
type Resolution struct {
	ID          string              `json:"id" yaml:"id"`
	Type        string              `json:"type" yaml:"type"`
	Groups      []types.Group       `json:"groups" yaml:"groups"`
	Suggestions types.SuggestionMap `json:"suggestions" yaml:"suggestions"`
}

// ResolveSchema collects the type's groups, expands them by selections and
// resolves suggestions for the expanded set.
func (e *Engine) ResolveSchema(ctx context.Context, typeName string, selections types.Selections) Resolution {
	id := newID()
	ctx, span := e.tracer.Start(ctx, "taxon.resolve_schema", trace.WithAttributes(
		attribute.String("taxon.type", typeName),
		attribute.String("taxon.resolution_id", id),
		attribute.Int("taxon.selections", len(selections)),
	))
	defer span.End()

	log := e.logger.With("resolution_id", id, "type", typeName)
	start := time.Now()

	base := e.CollectGroups(ctx, typeName)
	expanded := e.Expand(base, typeName, selections)
	suggestions := e.Suggest(typeName, expanded, selections)

	e.metrics.observeResolution(len(expanded) - len(base))
	span.SetAttributes(
		attribute.Int("taxon.groups", len(expanded)),
		attribute.Int("taxon.suggestion_groups", len(suggestions)),
	)
	log.Debug("schema resolved",
		"groups", len(base),
		"expanded", len(expanded)-len(base),
		"suggestion_groups", len(suggestions),
		"elapsed", time.Since(start))

	return Resolution{ID: id, Type: typeName, Groups: expanded, Suggestions: suggestions}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
