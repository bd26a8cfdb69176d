// Package keys linearizes expression shapes into discrimination-tree keys.
//
// An expression is walked head-first along its application spine, arguments
// left-to-right, producing a preorder key sequence. Each key carries the
// number of subterms that follow it, so a sequence is self-delimiting: the
// span of any subterm can be recovered from arities alone. This is what makes
// wildcard matching over stored sequences possible without re-parsing.
package keys

import (
	"fmt"
	"strings"
)

// Tag discriminates the key alphabet. Values are part of the on-disk format
// and must not be renumbered.
type Tag uint8

const (
	// TagConst references a named symbol applied to Arity arguments.
	TagConst Tag = 0
	// TagBound references an enclosing binder by de Bruijn index.
	TagBound Tag = 1
	// TagLit is a literal value.
	TagLit Tag = 2
	// TagSort is a type universe.
	TagSort Tag = 3
	// TagStar is the wildcard: it stands for one whole subterm of any shape.
	TagStar Tag = 4
	// TagProj projects a field out of a structure value.
	TagProj Tag = 5
)

// Key is one token in the linearization of an expression's shape.
//
// Field use per tag:
//
//	Const: Sym = symbol name, Arity = applied arguments
//	Bound: Num = de Bruijn index, Arity = applied arguments
//	Lit:   Sym = literal value, Num = literal kind
//	Sort:  no payload
//	Star:  no payload, Arity always 0
//	Proj:  Num = field index, Arity = 1 (struct value) + applied arguments
type Key struct {
	Tag   Tag
	Sym   string
	Num   uint32
	Arity uint32
}

// Star returns the wildcard key.
func Star() Key { return Key{Tag: TagStar} }

func (k Key) String() string {
	switch k.Tag {
	case TagConst:
		return fmt.Sprintf("%s/%d", k.Sym, k.Arity)
	case TagBound:
		return fmt.Sprintf("#%d/%d", k.Num, k.Arity)
	case TagLit:
		return fmt.Sprintf("lit:%s", k.Sym)
	case TagSort:
		return "sort"
	case TagStar:
		return "*"
	case TagProj:
		return fmt.Sprintf("proj:%d/%d", k.Num, k.Arity)
	default:
		return fmt.Sprintf("key(%d)", k.Tag)
	}
}

// Compare orders keys by (Tag, Sym, Num, Arity). The order has no matching
// significance; it exists so edge lists can be serialized deterministically.
func Compare(a, b Key) int {
	if a.Tag != b.Tag {
		return int(a.Tag) - int(b.Tag)
	}
	if c := strings.Compare(a.Sym, b.Sym); c != 0 {
		return c
	}
	if a.Num != b.Num {
		if a.Num < b.Num {
			return -1
		}
		return 1
	}
	if a.Arity != b.Arity {
		if a.Arity < b.Arity {
			return -1
		}
		return 1
	}
	return 0
}

// SubtermEnd returns, for each position i in ks, the index one past the end
// of the subterm whose root key sits at i. ks must be a well-formed sequence
// (as produced by Encode); out-of-range arities yield len(ks).
func SubtermEnd(ks []Key) []int {
	end := make([]int, len(ks))
	for i := len(ks) - 1; i >= 0; i-- {
		j := i + 1
		for c := uint32(0); c < ks[i].Arity; c++ {
			if j >= len(ks) {
				break
			}
			j = end[j]
		}
		end[i] = j
	}
	return end
}

// String renders a key sequence for logs and test failure messages.
func String(ks []Key) string {
	parts := make([]string, len(ks))
	for i, k := range ks {
		parts[i] = k.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
