package discrim

import "strings"

// Ranker orders matches. Compare returns a negative value when a should rank
// before b, positive when b should rank before a, and zero when the ranker
// has no preference.
//
// The relative weighting of priority and specificity is a policy choice, so
// the two criteria ship as separate rankers and Combine builds lexicographic
// compositions. A custom Ranker must be a total order up to ByName ties if
// deterministic results matter.
type Ranker interface {
	Compare(a, b Match) int
}

// RankerFunc adapts a comparison function to the Ranker interface.
type RankerFunc func(a, b Match) int

// Compare implements Ranker.
func (f RankerFunc) Compare(a, b Match) int { return f(a, b) }

// ByPriority ranks higher declared priority first.
var ByPriority Ranker = RankerFunc(func(a, b Match) int {
	switch {
	case a.Priority > b.Priority:
		return -1
	case a.Priority < b.Priority:
		return 1
	default:
		return 0
	}
})

// BySpecificity ranks more specific stored patterns first: a match that
// consumed fewer wildcard edges is preferred over a more general one.
var BySpecificity Ranker = RankerFunc(func(a, b Match) int {
	return a.Stars - b.Stars
})

// ByName ranks by declaration name, ascending. It is the stable fallback
// that makes any composed order deterministic.
var ByName Ranker = RankerFunc(func(a, b Match) int {
	return strings.Compare(a.Name, b.Name)
})

// Combine builds a lexicographic order: each ranker is consulted in turn
// until one expresses a preference.
func Combine(rankers ...Ranker) Ranker {
	return RankerFunc(func(a, b Match) int {
		for _, r := range rankers {
			if c := r.Compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	})
}

// DefaultRanker orders by descending priority, then by specificity with
// fewer wildcards first, then by name.
var DefaultRanker = Combine(ByPriority, BySpecificity, ByName)
