// Package discrim provides a discrimination-tree index over declaration
// shapes for fast candidate retrieval in large, mostly-static corpora.
//
// Given a goal expression, the index shortlists declarations whose conclusion
// could syntactically match it, so a downstream matcher only has to try a
// handful of candidates instead of the whole corpus. The index performs no
// unification or type checking itself.
//
// # Quick start
//
// Build an index from a corpus, save it, and query it:
//
//	decls := func(yield func(discrim.Declaration) bool) {
//	    for _, d := range corpus {
//	        if !yield(discrim.Declaration{Name: d.Name, Conclusion: d.Conclusion, Priority: d.Priority}) {
//	            return
//	        }
//	    }
//	}
//
//	ix, err := discrim.Build(ctx, decls, discrim.WithShards(4))
//	if err != nil {
//	    return err
//	}
//	if err := ix.Save("facts.dti"); err != nil {
//	    return err
//	}
//
//	matches, err := ix.Query(ctx, goal, 10)
//
// On later sessions, reload instead of rebuilding:
//
//	ix, err := discrim.Load("facts.dti", discrim.Fingerprint(decls))
//	if err != nil {
//	    // Any load failure means "no usable cache": rebuild.
//	    ix, err = discrim.Build(ctx, decls)
//	}
//
// Streaming search with early termination:
//
//	for match, err := range ix.Search(goal).Stream(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    if tryApply(match) {
//	        break
//	    }
//	}
//
// # Concurrency
//
// An Index is immutable once built or loaded: any number of goroutines may
// query it concurrently without coordination. Builds are one-shot batch
// operations; WithShards splits the corpus across goroutines and combines the
// shard trees with an order-independent merge.
package discrim
