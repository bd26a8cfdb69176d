// Package dtree implements the discrimination tree: a prefix tree over key
// sequences that narrows a large declaration corpus down to the candidates
// whose conclusion shape is compatible with a query shape.
//
// Nodes live in an arena addressed by integer id, which keeps ownership flat
// and makes serialization a direct table dump. Terminal entry sets are
// roaring bitmaps of entry-table ids, so repeated insertion is idempotent and
// merge unions are cheap.
//
// A tree is mutable while it is being built and must be treated as immutable
// afterwards: Lookup never mutates, so any number of concurrent readers may
// share one instance.
package dtree

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/discrim/keys"
)

// Entry is an indexed reference to one corpus declaration. Entries are
// immutable once interned.
type Entry struct {
	Name     string
	Priority int32
}

type node struct {
	edges   map[keys.Key]uint32
	entries *roaring.Bitmap // nil unless some key sequence terminates here
}

// Tree is a discrimination tree plus its entry table.
type Tree struct {
	nodes   []node
	entries []Entry
	byName  map[string]uint32
}

// New returns an empty tree containing only the root node.
func New() *Tree {
	return &Tree{
		nodes:  []node{{}},
		byName: make(map[string]uint32),
	}
}

// Len returns the number of distinct entries stored in the tree.
func (t *Tree) Len() int { return len(t.entries) }

// Entry returns the entry with the given table id.
func (t *Tree) Entry(id uint32) Entry { return t.entries[id] }

// intern registers e in the entry table, deduplicating by name.
// The first registration of a name wins; later priorities are ignored.
func (t *Tree) intern(e Entry) uint32 {
	if id, ok := t.byName[e.Name]; ok {
		return id
	}
	id := uint32(len(t.entries))
	t.entries = append(t.entries, e)
	t.byName[e.Name] = id
	return id
}

// Insert stores e at the node reached by walking ks from the root, creating
// nodes as needed. Inserting the same (ks, e) pair twice is a no-op.
func (t *Tree) Insert(ks []keys.Key, e Entry) {
	id := t.intern(e)
	cur := uint32(0)
	for _, k := range ks {
		n := &t.nodes[cur]
		child, ok := n.edges[k]
		if !ok {
			child = uint32(len(t.nodes))
			if n.edges == nil {
				n.edges = make(map[keys.Key]uint32, 1)
			}
			n.edges[k] = child
			t.nodes = append(t.nodes, node{})
		}
		cur = child
	}
	term := &t.nodes[cur]
	if term.entries == nil {
		term.entries = roaring.New()
	}
	term.entries.Add(id)
}

// Merge returns the structural union of a and b. Neither input is modified.
// Merge is associative and commutative up to query results, so shard trees
// built in parallel can be combined in any order.
func Merge(a, b *Tree) *Tree {
	out := a.clone()
	remap := make([]uint32, len(b.entries))
	for i, e := range b.entries {
		remap[i] = out.intern(e)
	}
	out.mergeNode(0, b, 0, remap)
	return out
}

func (t *Tree) mergeNode(dst uint32, src *Tree, srcID uint32, remap []uint32) {
	sn := &src.nodes[srcID]

	if sn.entries != nil {
		dn := &t.nodes[dst]
		if dn.entries == nil {
			dn.entries = roaring.New()
		}
		it := sn.entries.Iterator()
		for it.HasNext() {
			t.nodes[dst].entries.Add(remap[it.Next()])
		}
	}

	for k, sc := range sn.edges {
		dn := &t.nodes[dst]
		dc, ok := dn.edges[k]
		if !ok {
			dc = uint32(len(t.nodes))
			if dn.edges == nil {
				dn.edges = make(map[keys.Key]uint32, len(sn.edges))
			}
			dn.edges[k] = dc
			t.nodes = append(t.nodes, node{})
		}
		t.mergeNode(dc, src, sc, remap)
	}
}

func (t *Tree) clone() *Tree {
	out := &Tree{
		nodes:   make([]node, len(t.nodes)),
		entries: make([]Entry, len(t.entries)),
		byName:  make(map[string]uint32, len(t.byName)),
	}
	copy(out.entries, t.entries)
	for name, id := range t.byName {
		out.byName[name] = id
	}
	for i, n := range t.nodes {
		cn := node{}
		if n.edges != nil {
			cn.edges = make(map[keys.Key]uint32, len(n.edges))
			for k, c := range n.edges {
				cn.edges[k] = c
			}
		}
		if n.entries != nil {
			cn.entries = n.entries.Clone()
		}
		out.nodes[i] = cn
	}
	return out
}

// Stats summarizes the tree's shape.
type Stats struct {
	NodeCount  int
	EntryCount int
	EdgeCount  int
	MaxDepth   int
}

// Stats walks the tree and reports size counters.
func (t *Tree) Stats() Stats {
	s := Stats{NodeCount: len(t.nodes), EntryCount: len(t.entries)}

	type item struct {
		id    uint32
		depth int
	}
	stack := []item{{id: 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.depth > s.MaxDepth {
			s.MaxDepth = it.depth
		}
		for _, c := range t.nodes[it.id].edges {
			s.EdgeCount++
			stack = append(stack, item{id: c, depth: it.depth + 1})
		}
	}
	return s
}
