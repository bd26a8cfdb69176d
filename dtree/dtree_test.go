package dtree

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/discrim/expr"
	"github.com/hupe1980/discrim/keys"
)

func indexKeys(t *testing.T, e expr.Expr) []keys.Key {
	t.Helper()
	ks, err := keys.Encode(e, keys.ModeIndex, 0)
	require.NoError(t, err)
	return ks
}

func queryKeys(t *testing.T, e expr.Expr) []keys.Key {
	t.Helper()
	ks, err := keys.Encode(e, keys.ModeQuery, 0)
	require.NoError(t, err)
	return ks
}

func names(tr *Tree, cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = tr.Entry(c.ID).Name
	}
	sort.Strings(out)
	return out
}

func eq(a, b expr.Expr) expr.Expr  { return expr.Apply(expr.C("Eq"), a, b) }
func mul(a, b expr.Expr) expr.Expr { return expr.Apply(expr.C("Mul"), a, b) }
func add(a, b expr.Expr) expr.Expr { return expr.Apply(expr.C("Add"), a, b) }

// mulComm is a * b = b * a with a, b bound by enclosing quantifiers.
func mulComm() expr.Expr {
	return eq(mul(expr.B(1), expr.B(0)), mul(expr.B(0), expr.B(1)))
}

// addZero is a + 0 = a.
func addZero() expr.Expr {
	return eq(add(expr.B(0), expr.Nat(0)), expr.B(0))
}

func TestInsertLookupExact(t *testing.T) {
	tr := New()
	tr.Insert(indexKeys(t, mulComm()), Entry{Name: "mul_comm", Priority: 1})
	tr.Insert(indexKeys(t, addZero()), Entry{Name: "add_zero", Priority: 1})

	got := tr.Lookup(indexKeys(t, mulComm()), 0)
	assert.Equal(t, []string{"mul_comm"}, names(tr, got))

	got = tr.Lookup(indexKeys(t, addZero()), 0)
	assert.Equal(t, []string{"add_zero"}, names(tr, got))
}

func TestQueryStarExploresAllChildren(t *testing.T) {
	tr := New()
	tr.Insert(indexKeys(t, mulComm()), Entry{Name: "mul_comm", Priority: 1})
	tr.Insert(indexKeys(t, addZero()), Entry{Name: "add_zero", Priority: 1})

	// ?x * ?y = ?y * ?x
	q := queryKeys(t, eq(mul(expr.Hole("x"), expr.Hole("y")), mul(expr.Hole("y"), expr.Hole("x"))))
	got := tr.Lookup(q, 0)
	assert.Equal(t, []string{"mul_comm"}, names(tr, got))

	// ?p + 0 = ?p
	q = queryKeys(t, eq(add(expr.Hole("p"), expr.Nat(0)), expr.Hole("p")))
	got = tr.Lookup(q, 0)
	assert.Equal(t, []string{"add_zero"}, names(tr, got))

	// ?x - ?y = ?y - ?x matches nothing.
	sub := func(a, b expr.Expr) expr.Expr { return expr.Apply(expr.C("Sub"), a, b) }
	q = queryKeys(t, eq(sub(expr.Hole("x"), expr.Hole("y")), sub(expr.Hole("y"), expr.Hole("x"))))
	got = tr.Lookup(q, 0)
	assert.Empty(t, got)
}

func TestStoredStarMatchesAnySubterm(t *testing.T) {
	// Stored pattern f(*, b): the wildcard position must accept any query
	// subterm, shallow or deep.
	tr := New()
	stored := []keys.Key{
		{Tag: keys.TagConst, Sym: "f", Arity: 2},
		keys.Star(),
		{Tag: keys.TagConst, Sym: "b"},
	}
	tr.Insert(stored, Entry{Name: "fact", Priority: 1})

	for _, arg := range []expr.Expr{
		expr.C("a"),
		mul(expr.C("x"), expr.C("y")),
		eq(mul(expr.B(0), expr.B(1)), expr.Nat(7)),
	} {
		q := queryKeys(t, expr.Apply(expr.C("f"), arg, expr.C("b")))
		got := tr.Lookup(q, 0)
		assert.Equal(t, []string{"fact"}, names(tr, got), "arg %v", arg)
	}

	// Disagreement outside the wildcard position still rules it out.
	q := queryKeys(t, expr.Apply(expr.C("f"), expr.C("a"), expr.C("c")))
	assert.Empty(t, tr.Lookup(q, 0))
}

func TestStoredStarReportsSpecificity(t *testing.T) {
	tr := New()
	tr.Insert([]keys.Key{
		{Tag: keys.TagConst, Sym: "f", Arity: 1},
		keys.Star(),
	}, Entry{Name: "general", Priority: 1})
	tr.Insert([]keys.Key{
		{Tag: keys.TagConst, Sym: "f", Arity: 1},
		{Tag: keys.TagConst, Sym: "a"},
	}, Entry{Name: "specific", Priority: 1})

	got := tr.Lookup(queryKeys(t, expr.Apply(expr.C("f"), expr.C("a"))), 0)
	require.Len(t, got, 2)

	stars := map[string]int{}
	for _, c := range got {
		stars[tr.Entry(c.ID).Name] = c.Stars
	}
	assert.Equal(t, 0, stars["specific"])
	assert.Equal(t, 1, stars["general"])
}

func TestInsertIdempotent(t *testing.T) {
	tr := New()
	ks := indexKeys(t, mulComm())
	tr.Insert(ks, Entry{Name: "mul_comm", Priority: 1})
	tr.Insert(ks, Entry{Name: "mul_comm", Priority: 1})

	assert.Equal(t, 1, tr.Len())
	got := tr.Lookup(ks, 0)
	assert.Len(t, got, 1)
}

func TestLookupDeduplicatesAcrossPaths(t *testing.T) {
	// The same entry stored under two patterns is reported once.
	tr := New()
	e := Entry{Name: "fact", Priority: 1}
	tr.Insert([]keys.Key{{Tag: keys.TagConst, Sym: "f", Arity: 1}, keys.Star()}, e)
	tr.Insert([]keys.Key{{Tag: keys.TagConst, Sym: "f", Arity: 1}, {Tag: keys.TagConst, Sym: "a"}}, e)

	got := tr.Lookup(queryKeys(t, expr.Apply(expr.C("f"), expr.C("a"))), 0)
	require.Len(t, got, 1)
	// The more specific path wins the reported star count.
	assert.Equal(t, 0, got[0].Stars)
}

func TestLookupBudgetYieldsPartialResults(t *testing.T) {
	tr := New()
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		tr.Insert([]keys.Key{
			{Tag: keys.TagConst, Sym: "f", Arity: 1},
			{Tag: keys.TagConst, Sym: n},
		}, Entry{Name: n, Priority: 1})
	}

	q := queryKeys(t, expr.Apply(expr.C("f"), expr.Hole("x")))
	full := tr.Lookup(q, 0)
	assert.Len(t, full, 8)

	partial := tr.Lookup(q, 3)
	assert.Less(t, len(partial), 8)
	// Partial results are still valid entries.
	for _, c := range partial {
		assert.NotEmpty(t, tr.Entry(c.ID).Name)
	}
}

func TestMergeLaws(t *testing.T) {
	build := func(decls ...string) *Tree {
		tr := New()
		for _, n := range decls {
			tr.Insert([]keys.Key{
				{Tag: keys.TagConst, Sym: "f", Arity: 1},
				{Tag: keys.TagConst, Sym: n},
			}, Entry{Name: n, Priority: 1})
		}
		return tr
	}
	a := build("a1", "a2")
	b := build("b1")
	c := build("c1", "c2", "c3")

	q := queryKeys(t, expr.Apply(expr.C("f"), expr.Hole("x")))

	t.Run("commutative", func(t *testing.T) {
		ab := Merge(a, b)
		ba := Merge(b, a)
		assert.Equal(t, names(ab, ab.Lookup(q, 0)), names(ba, ba.Lookup(q, 0)))
	})

	t.Run("associative", func(t *testing.T) {
		left := Merge(Merge(a, b), c)
		right := Merge(a, Merge(b, c))
		assert.Equal(t, names(left, left.Lookup(q, 0)), names(right, right.Lookup(q, 0)))
	})

	t.Run("inputs unchanged", func(t *testing.T) {
		_ = Merge(a, b)
		assert.Equal(t, 2, a.Len())
		assert.Equal(t, 1, b.Len())
	})
}

func TestStats(t *testing.T) {
	tr := New()
	tr.Insert(indexKeys(t, mulComm()), Entry{Name: "mul_comm", Priority: 1})
	tr.Insert(indexKeys(t, addZero()), Entry{Name: "add_zero", Priority: 1})

	s := tr.Stats()
	assert.Equal(t, 2, s.EntryCount)
	assert.Greater(t, s.NodeCount, 1)
	assert.Equal(t, s.NodeCount-1, s.EdgeCount)
	assert.Equal(t, 7, s.MaxDepth)
}
