// Package taxon is the public entry point to the taxonomy engine. Open
// builds an Engine over the backend named in a types.Config.
//
// Example:
//
//	eng, err := taxon.Open(types.Config{
//	    Backend: types.BackendFiles,
//	    DataDir: ".taxon-db",
//	}, taxon.Options{})
//	res := eng.ResolveSchema(ctx, "person", types.Selections{
//	    "work_place": {ID: "hospital"},
//	})
package taxon

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/taxon/internal/filestore"
	"github.com/mesh-intelligence/taxon/internal/memstore"
	"github.com/mesh-intelligence/taxon/internal/secrets"
	"github.com/mesh-intelligence/taxon/internal/taxonomy"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Version is the module version reported by the CLI.
const Version = "0.1.0"

// Engine resolves schemas and suggestions. See the taxonomy package for the
// full method set.
type Engine = taxonomy.Engine

// Resolution is the result of Engine.ResolveSchema.
type Resolution = taxonomy.Resolution

// Location is the result of Engine.LocateOption.
type Location = taxonomy.Location

// GroupMeta names an imported label group.
type GroupMeta = taxonomy.GroupMeta

// Options carries optional collaborators. Zero values select defaults.
type Options struct {
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	HTTPClient *http.Client
	Secrets    types.SecretLookup
}

// Open validates cfg and returns an Engine over the configured backend.
func Open(cfg types.Config, o Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var store types.Store
	switch cfg.Backend {
	case types.BackendFiles:
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("config: %w: data_dir is required for the %s backend", types.ErrInvalidPath, cfg.Backend)
		}
		store = filestore.New(cfg.DataDir)
	case types.BackendMemory:
		store = memstore.New()
	}

	lookup := o.Secrets
	if lookup == nil {
		lookup = secrets.New(cfg.SecretsFile, logger)
	}

	opts := []taxonomy.Option{
		taxonomy.WithLogger(logger),
		taxonomy.WithSecrets(lookup),
		taxonomy.WithHTTPClient(o.HTTPClient),
	}
	if o.Registerer != nil {
		m, err := taxonomy.NewMetrics(o.Registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		opts = append(opts, taxonomy.WithMetrics(m))
	}
	return taxonomy.New(store, cfg, opts...), nil
}
