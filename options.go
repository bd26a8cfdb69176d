package discrim

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/discrim/dtree"
	"github.com/hupe1980/discrim/keys"
	"github.com/hupe1980/discrim/persistence"
)

type options struct {
	fuel        int
	budget      int
	shards      int
	compression persistence.Compression
	ranker      Ranker
	limiter     *rate.Limiter
	logger      *Logger
	metrics     MetricsCollector
}

// Option configures Build/Load behavior and the defaults used by queries
// against the resulting Index.
type Option func(*options)

// WithFuel sets the encoding depth budget. Subterms deeper than fuel are
// truncated to a wildcard, so larger values make patterns more discriminating
// at the cost of longer key sequences. Values <= 0 select keys.DefaultFuel.
//
// Fuel is part of the index's shape: queries against an index must use the
// same fuel the index was built with, which is why it is an Index option
// rather than a per-query knob.
func WithFuel(fuel int) Option {
	return func(o *options) {
		o.fuel = fuel
	}
}

// WithLookupBudget sets the default node-visit budget for lookups.
//
// The budget is the only latency control on the query path: a smaller budget
// trades completeness (possibly missed matches) for a hard bound on traversal
// work. Exhausting it yields a partial result, not an error. Values <= 0
// mean unbounded. Individual queries can override this via Search().Budget.
func WithLookupBudget(budget int) Option {
	return func(o *options) {
		o.budget = budget
	}
}

// WithShards sets the number of corpus shards built in parallel.
//
// Each shard folds its slice of the corpus into its own tree with no shared
// state; the shard trees are combined with an associative, commutative merge,
// so the result is independent of the partitioning. Values <= 1 disable
// sharding.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// Compression selects the payload codec for saved cache files.
type Compression = persistence.Compression

// Re-exported codecs.
const (
	CompressionNone = persistence.CompressionNone
	CompressionLZ4  = persistence.CompressionLZ4
	CompressionZSTD = persistence.CompressionZSTD
)

// WithCompression selects the payload codec for saved cache files.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithRanker sets the default result order. See Ranker for the contract;
// DefaultRanker is priority, then specificity, then name.
func WithRanker(r Ranker) Option {
	return func(o *options) {
		if r == nil {
			r = DefaultRanker
		}
		o.ranker = r
	}
}

// WithRateLimit throttles corpus iteration during builds to declsPerSec.
// Useful when a background rebuild shares a machine with interactive work.
// A zero or negative rate disables throttling.
func WithRateLimit(declsPerSec float64, burst int) Option {
	return func(o *options) {
		if declsPerSec <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(declsPerSec), burst)
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fuel:        keys.DefaultFuel,
		budget:      dtree.DefaultBudget,
		shards:      1,
		compression: persistence.DefaultCompression,
		ranker:      DefaultRanker,
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
