package discrim

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/discrim/dtree"
	"github.com/hupe1980/discrim/keys"
)

// Build folds a corpus into a new Index.
//
// Each declaration's conclusion is encoded in index mode and inserted; a
// declaration whose conclusion cannot be encoded is logged and skipped,
// never aborting the build. With WithShards(n), the corpus is partitioned
// round-robin across n goroutines and the shard trees are combined with
// dtree.Merge; insertion idempotence plus merge associativity/commutativity
// make the result independent of partitioning and declaration order.
//
// The builder owns its trees exclusively until Build returns; afterwards the
// Index is immutable and safe to share.
func Build(ctx context.Context, decls iter.Seq[Declaration], optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	start := time.Now()

	var (
		fp      uint64
		total   int
		skipped int64
		tree    *dtree.Tree
		err     error
	)

	if o.shards <= 1 {
		tree, total, err = buildSingle(ctx, decls, &o, &fp, &skipped)
	} else {
		tree, total, err = buildSharded(ctx, decls, &o, &fp, &skipped)
	}
	if err != nil {
		return nil, err
	}

	indexed := total - int(skipped)
	o.metrics.RecordBuild(indexed, int(skipped), time.Since(start))
	o.logger.LogBuild(ctx, indexed, int(skipped), max(o.shards, 1))

	return &Index{tree: tree, fingerprint: fp, opts: o}, nil
}

func buildSingle(ctx context.Context, decls iter.Seq[Declaration], o *options, fp *uint64, skipped *int64) (*dtree.Tree, int, error) {
	tree := dtree.New()
	total := 0
	for d := range decls {
		if err := o.throttle(ctx); err != nil {
			return nil, 0, err
		}
		*fp ^= declHash(d)
		total++
		if !insertDecl(ctx, tree, d, o) {
			*skipped++
		}
	}
	return tree, total, nil
}

func buildSharded(ctx context.Context, decls iter.Seq[Declaration], o *options, fp *uint64, skipped *int64) (*dtree.Tree, int, error) {
	// The corpus contract is "finite and enumerable at build time", so
	// materializing the partition up front is fine.
	buckets := make([][]Declaration, o.shards)
	total := 0
	for d := range decls {
		if err := o.throttle(ctx); err != nil {
			return nil, 0, err
		}
		*fp ^= declHash(d)
		buckets[total%o.shards] = append(buckets[total%o.shards], d)
		total++
	}

	var skipCount atomic.Int64
	trees := make([]*dtree.Tree, o.shards)

	g, gctx := errgroup.WithContext(ctx)
	for s := range buckets {
		g.Go(func() error {
			t := dtree.New()
			for _, d := range buckets[s] {
				if err := gctx.Err(); err != nil {
					return err
				}
				if !insertDecl(gctx, t, d, o) {
					skipCount.Add(1)
				}
			}
			trees[s] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	merged := trees[0]
	for _, t := range trees[1:] {
		merged = dtree.Merge(merged, t)
	}
	*skipped = skipCount.Load()
	return merged, total, nil
}

// insertDecl encodes and inserts one declaration, reporting false when the
// declaration had to be skipped.
func insertDecl(ctx context.Context, tree *dtree.Tree, d Declaration, o *options) bool {
	var encErr error
	if d.Conclusion == nil {
		encErr = ErrNilExpression
	} else {
		var ks []keys.Key
		ks, encErr = keys.Encode(d.Conclusion, keys.ModeIndex, o.fuel)
		if encErr == nil {
			tree.Insert(ks, dtree.Entry{Name: d.Name, Priority: d.Priority})
		}
	}

	o.metrics.RecordInsert(encErr)
	if encErr != nil {
		o.logger.LogSkip(ctx, d.Name, encErr)
		return false
	}
	return true
}

func (o *options) throttle(ctx context.Context) error {
	if o.limiter != nil {
		return o.limiter.Wait(ctx)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
