package elnode

import (
	"log/slog"

	"github.com/dcluna/elnode/config"
)

type Option func(*Registry)

// WithConfig replaces the default engine configuration.
func WithConfig(cfg *config.Config) Option {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// WithLogger routes the engine's diagnostics through log.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}
