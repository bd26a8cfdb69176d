package discrim

import (
	"context"
	"time"

	"github.com/hupe1980/discrim/dtree"
	"github.com/hupe1980/discrim/expr"
	"github.com/hupe1980/discrim/persistence"
)

// Declaration is one corpus fact: a stable name, the conclusion expression
// whose shape gets indexed, and a priority hint used for ranking. How
// declarations are stored and elaborated is the corpus provider's business;
// the index only consumes this triple.
type Declaration struct {
	Name       string
	Conclusion expr.Expr
	Priority   int32
}

// Match is one ranked query result. Stars counts the stored wildcard edges
// consumed while matching: lower means the stored pattern describes the goal
// more specifically.
type Match struct {
	Name     string
	Priority int32
	Stars    int
}

// Index is an immutable discrimination-tree index over a corpus snapshot.
// Once built or loaded it never changes, so any number of goroutines may
// query one instance concurrently.
type Index struct {
	tree        *dtree.Tree
	fingerprint uint64
	opts        options
}

// Fingerprint returns the corpus fingerprint the index was built from.
func (ix *Index) Fingerprint() uint64 { return ix.fingerprint }

// Len returns the number of indexed declarations.
func (ix *Index) Len() int { return ix.tree.Len() }

// Stats reports the size and shape of the underlying tree.
func (ix *Index) Stats() dtree.Stats { return ix.tree.Stats() }

// Save atomically writes the index to path. On failure the in-memory index
// remains fully usable.
func (ix *Index) Save(path string) error {
	start := time.Now()
	err := persistence.Save(ix.tree, ix.fingerprint, path, ix.opts.compression)
	ix.opts.metrics.RecordSave(time.Since(start), err)
	ix.opts.logger.LogSave(context.Background(), path, err)
	return err
}

// Load reads a cache file written by Save and validates it against
// fingerprint, the fingerprint of the corpus the caller is about to serve.
//
// Every failure mode, missing file, format or version skew, fingerprint
// mismatch, truncation, corruption, comes back as a *LoadError. None of them
// are fatal: the caller falls back to Build. A stale cache is never served
// silently.
func Load(path string, fingerprint uint64, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	start := time.Now()

	tree, err := persistence.Load(path, fingerprint)
	o.metrics.RecordLoad(time.Since(start), err)
	o.logger.LogLoad(context.Background(), path, err)
	if err != nil {
		return nil, err
	}

	return &Index{tree: tree, fingerprint: fingerprint, opts: o}, nil
}

// Query encodes target, looks up compatible candidates and returns them
// ranked. limit caps the result; limit == 0 means unlimited.
//
// Equivalent to ix.Search(target).Limit(limit).Execute(ctx).
func (ix *Index) Query(ctx context.Context, target expr.Expr, limit int) ([]Match, error) {
	return ix.Search(target).Limit(limit).Execute(ctx)
}
