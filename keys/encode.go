package keys

import "github.com/hupe1980/discrim/expr"

// Mode selects how unresolved placeholders are handled during encoding.
type Mode uint8

const (
	// ModeIndex is used when indexing corpus declarations. Placeholders are
	// illegal: a declaration's conclusion must be fully elaborated.
	ModeIndex Mode = iota
	// ModeQuery is used when encoding a goal. Placeholders become wildcards.
	ModeQuery
)

// DefaultFuel bounds the encoded depth of an expression. Subterms deeper
// than this collapse to a single Star, so pathological expressions still
// produce bounded key sequences.
const DefaultFuel = 32

// EncodingError reports an expression that cannot be reduced to a valid
// index key sequence.
type EncodingError struct {
	Placeholder string
}

func (e *EncodingError) Error() string {
	return "cannot encode expression containing placeholder ?" + e.Placeholder
}

// Encode linearizes e into a key sequence.
//
// The walk is a fixed preorder traversal of the application spine, head
// first, arguments left-to-right. Each level of recursion consumes one unit
// of fuel; at zero fuel the remaining subtree is truncated to Star. Passing
// fuel <= 0 selects DefaultFuel.
//
// Encode is pure: the same expression and mode always yield the same
// sequence, and bound variables are referenced by de Bruijn index, so
// alpha-equivalent expressions encode identically.
func Encode(e expr.Expr, mode Mode, fuel int) ([]Key, error) {
	if fuel <= 0 {
		fuel = DefaultFuel
	}
	enc := encoder{mode: mode, keys: make([]Key, 0, 16)}
	if err := enc.walk(e, fuel); err != nil {
		return nil, err
	}
	return enc.keys, nil
}

type encoder struct {
	mode Mode
	keys []Key
}

func (enc *encoder) walk(e expr.Expr, fuel int) error {
	if fuel <= 0 {
		enc.keys = append(enc.keys, Star())
		return nil
	}

	head, args := expr.Spine(e)

	switch h := head.(type) {
	case expr.Meta:
		if enc.mode == ModeIndex {
			return &EncodingError{Placeholder: h.Name}
		}
		// A placeholder head absorbs its arguments: once instantiated the
		// whole subterm can take any shape, so it is one wildcard.
		enc.keys = append(enc.keys, Star())
		return nil
	case expr.Lambda:
		// Binder bodies are opaque to the index.
		enc.keys = append(enc.keys, Star())
		return nil
	case expr.Const:
		enc.keys = append(enc.keys, Key{Tag: TagConst, Sym: h.Name, Arity: uint32(len(args))})
	case expr.Bound:
		enc.keys = append(enc.keys, Key{Tag: TagBound, Num: uint32(h.Index), Arity: uint32(len(args))})
	case expr.Lit:
		enc.keys = append(enc.keys, Key{Tag: TagLit, Sym: h.Value, Num: uint32(h.Kind), Arity: uint32(len(args))})
	case expr.Sort:
		enc.keys = append(enc.keys, Key{Tag: TagSort, Arity: uint32(len(args))})
	case expr.Proj:
		enc.keys = append(enc.keys, Key{Tag: TagProj, Num: uint32(h.Field), Arity: uint32(1 + len(args))})
		if err := enc.walk(h.Struct, fuel-1); err != nil {
			return err
		}
	}

	for _, a := range args {
		if err := enc.walk(a, fuel-1); err != nil {
			return err
		}
	}

	return nil
}
