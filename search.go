package discrim

import (
	"context"
	"iter"
	"time"

	"github.com/hupe1980/discrim/expr"
	"github.com/hupe1980/discrim/keys"
	"github.com/hupe1980/discrim/queue"
)

// Search creates a fluent query builder for the given goal expression.
//
// Example:
//
//	matches, err := ix.Search(goal).
//	    Limit(10).
//	    Budget(4096).
//	    Execute(ctx)
//
// Or streaming, stopping as soon as a candidate applies:
//
//	for match, err := range ix.Search(goal).Stream(ctx) {
//	    if err != nil || tryApply(match) {
//	        break
//	    }
//	}
func (ix *Index) Search(target expr.Expr) *SearchBuilder {
	return &SearchBuilder{
		ix:     ix,
		target: target,
		budget: ix.opts.budget,
		ranker: ix.opts.ranker,
	}
}

// SearchBuilder accumulates query parameters before execution.
type SearchBuilder struct {
	ix     *Index
	target expr.Expr
	limit  int
	budget int
	ranker Ranker
}

// Limit caps the number of results. 0 means unlimited.
func (sb *SearchBuilder) Limit(n int) *SearchBuilder {
	sb.limit = n
	return sb
}

// Budget overrides the index's default node-visit budget for this query.
// Exhausting the budget truncates the candidate set; it is not an error.
// Values <= 0 mean unbounded.
func (sb *SearchBuilder) Budget(n int) *SearchBuilder {
	sb.budget = n
	return sb
}

// Rank overrides the result order for this query.
func (sb *SearchBuilder) Rank(r Ranker) *SearchBuilder {
	if r != nil {
		sb.ranker = r
	}
	return sb
}

// Execute runs the query and returns the ranked results.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]Match, error) {
	start := time.Now()

	matches, err := sb.collect(ctx)
	if err != nil {
		sb.ix.opts.metrics.RecordQuery(0, time.Since(start), err)
		sb.ix.opts.logger.LogQuery(ctx, 0, err)
		return nil, err
	}

	pq := sb.rankQueue(matches)
	n := len(matches)
	if sb.limit > 0 && sb.limit < n {
		n = sb.limit
	}
	out := make([]Match, 0, n)
	for pq.Len() > 0 && len(out) < n {
		out = append(out, pq.PopItem())
	}

	sb.ix.opts.metrics.RecordQuery(len(out), time.Since(start), nil)
	sb.ix.opts.logger.LogQuery(ctx, len(out), nil)
	return out, nil
}

// Stream returns the ranked results as a lazy sequence. Results are
// delivered best-first, so callers that stop early never pay for ordering
// the full tail.
func (sb *SearchBuilder) Stream(ctx context.Context) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		start := time.Now()

		matches, err := sb.collect(ctx)
		sb.ix.opts.metrics.RecordQuery(len(matches), time.Since(start), err)
		sb.ix.opts.logger.LogQuery(ctx, len(matches), err)
		if err != nil {
			yield(Match{}, err)
			return
		}

		pq := sb.rankQueue(matches)
		delivered := 0
		for pq.Len() > 0 {
			if sb.limit > 0 && delivered >= sb.limit {
				return
			}
			if !yield(pq.PopItem(), nil) {
				return
			}
			delivered++
		}
	}
}

// collect encodes the target in query mode and gathers unranked candidates.
func (sb *SearchBuilder) collect(ctx context.Context) ([]Match, error) {
	if sb.target == nil {
		return nil, ErrNilExpression
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qk, err := keys.Encode(sb.target, keys.ModeQuery, sb.ix.opts.fuel)
	if err != nil {
		return nil, err
	}

	cands := sb.ix.tree.Lookup(qk, sb.budget)
	matches := make([]Match, len(cands))
	for i, c := range cands {
		e := sb.ix.tree.Entry(c.ID)
		matches[i] = Match{Name: e.Name, Priority: e.Priority, Stars: c.Stars}
	}
	return matches, nil
}

func (sb *SearchBuilder) rankQueue(matches []Match) *queue.PriorityQueue[Match] {
	return queue.New(func(a, b Match) bool {
		return sb.ranker.Compare(a, b) < 0
	}, matches)
}
