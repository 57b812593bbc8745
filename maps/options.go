package maps

import (
	"log/slog"

	"github.com/amp-labs/amp-valuemap/compare"
	"github.com/amp-labs/amp-valuemap/logger"
)

type config[K comparable] struct {
	tieBreak compare.Order[K]
	logger   *slog.Logger
}

// Option configures a ValueOrderedMap at construction time.
type Option[K comparable] func(*config[K])

// WithTieBreak sets the order used between keys whose values are equal. When it
// returns 0 for two distinct keys, the key inserted first wins. A nil order means
// ties are always resolved by insertion order.
func WithTieBreak[K comparable](order compare.Order[K]) Option[K] {
	return func(c *config[K]) {
		c.tieBreak = order
	}
}

// WithLogger sets the logger the map reports to. The default discards everything.
func WithLogger[K comparable](log *slog.Logger) Option[K] {
	return func(c *config[K]) {
		if log == nil {
			log = logger.Null()
		}

		c.logger = log
	}
}

func buildConfig[K comparable](defaults config[K], opts []Option[K]) config[K] {
	cfg := defaults

	if cfg.logger == nil {
		cfg.logger = logger.Null()
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
