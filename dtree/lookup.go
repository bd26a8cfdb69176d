package dtree

import "github.com/hupe1980/discrim/keys"

// DefaultBudget is the default node-visit budget for Lookup.
const DefaultBudget = 1 << 16

// Candidate is one entry reachable under wildcard matching, together with
// the number of stored wildcard edges consumed on its matching path. Fewer
// stars means the stored pattern matched the query more specifically.
type Candidate struct {
	ID    uint32
	Stars int
}

type frame struct {
	node  uint32
	pos   int    // position in the query key sequence
	skip  uint32 // stored subterms left to skip before matching resumes
	stars int
}

// Lookup returns every entry stored at a node whose path is compatible with
// qk under wildcard semantics:
//
//   - a Star in qk matches one whole stored subterm, so every child edge is
//     explored and the stored subterm it roots is skipped over;
//   - a stored Star edge matches one whole query subterm, so matching resumes
//     after that subterm's span in qk.
//
// The search is an explicit-worklist backtracking walk. budget bounds the
// number of node visits; when it runs out the candidates accumulated so far
// are returned (a partial result, not an error). budget <= 0 means unbounded.
//
// Duplicate entries reachable via several paths are reported once, with the
// smallest star count observed.
func (t *Tree) Lookup(qk []keys.Key, budget int) []Candidate {
	end := keys.SubtermEnd(qk)
	star := keys.Star()

	var out []Candidate
	seen := make(map[uint32]int) // entry id -> index into out

	collect := func(n *node, stars int) {
		if n.entries == nil {
			return
		}
		it := n.entries.Iterator()
		for it.HasNext() {
			id := it.Next()
			if i, ok := seen[id]; ok {
				if stars < out[i].Stars {
					out[i].Stars = stars
				}
				continue
			}
			seen[id] = len(out)
			out = append(out, Candidate{ID: id, Stars: stars})
		}
	}

	stack := make([]frame, 1, 64)
	stack[0] = frame{node: 0}
	visits := 0

	for len(stack) > 0 {
		if budget > 0 && visits >= budget {
			break
		}
		visits++

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[f.node]

		if f.skip > 0 {
			// Mid-skip: descend every edge, balancing arities until the
			// skipped subterm is fully consumed.
			for k, c := range n.edges {
				stack = append(stack, frame{
					node:  c,
					pos:   f.pos,
					skip:  f.skip - 1 + k.Arity,
					stars: f.stars + storedStars(k),
				})
			}
			continue
		}

		if f.pos == len(qk) {
			collect(n, f.stars)
			continue
		}

		k := qk[f.pos]
		if k.Tag == keys.TagStar {
			for ek, c := range n.edges {
				stack = append(stack, frame{
					node:  c,
					pos:   f.pos + 1,
					skip:  ek.Arity,
					stars: f.stars + storedStars(ek),
				})
			}
			continue
		}

		if c, ok := n.edges[k]; ok {
			stack = append(stack, frame{node: c, pos: f.pos + 1, stars: f.stars})
		}
		if c, ok := n.edges[star]; ok {
			stack = append(stack, frame{node: c, pos: end[f.pos], stars: f.stars + 1})
		}
	}

	return out
}

func storedStars(k keys.Key) int {
	if k.Tag == keys.TagStar {
		return 1
	}
	return 0
}
