// Package expr defines the minimal expression shapes the index understands.
//
// The surrounding system owns elaboration and reduction; the index only needs
// enough structure to linearize an expression's applicative skeleton. Corpus
// providers translate their native term representation into these shapes.
package expr

import "strconv"

// Expr is one node of an applicative expression tree.
type Expr interface {
	isExpr()
	String() string
}

// Const is a reference to a named symbol (function, relation, constructor).
type Const struct {
	Name string
}

// App applies Fn to Arg. Multi-argument applications are curried:
// f(a, b) is App{App{f, a}, b}.
type App struct {
	Fn  Expr
	Arg Expr
}

// Bound is a variable bound by a quantifier enclosing the encoded expression,
// referenced by de Bruijn index. Alpha-equivalent expressions therefore share
// a representation.
type Bound struct {
	Index int
}

// Meta is an unresolved placeholder (a hole the caller has not solved yet).
type Meta struct {
	Name string
}

// LitKind discriminates literal values.
type LitKind uint8

const (
	LitNat LitKind = iota
	LitString
)

// Lit is a literal value.
type Lit struct {
	Kind  LitKind
	Value string
}

// Sort is a type universe.
type Sort struct{}

// Proj projects field Field out of the structure value Struct.
type Proj struct {
	Field  int
	Struct Expr
}

// Lambda is a binder. The index treats binder bodies as opaque.
type Lambda struct {
	Body Expr
}

func (Const) isExpr()  {}
func (App) isExpr()    {}
func (Bound) isExpr()  {}
func (Meta) isExpr()   {}
func (Lit) isExpr()    {}
func (Sort) isExpr()   {}
func (Proj) isExpr()   {}
func (Lambda) isExpr() {}

func (e Const) String() string { return e.Name }

func (e App) String() string { return "(" + e.Fn.String() + " " + e.Arg.String() + ")" }

func (e Bound) String() string { return "#" + strconv.Itoa(e.Index) }

func (e Meta) String() string { return "?" + e.Name }

func (e Lit) String() string {
	if e.Kind == LitString {
		return strconv.Quote(e.Value)
	}
	return e.Value
}

func (Sort) String() string { return "Sort" }

func (e Proj) String() string {
	return e.Struct.String() + "." + strconv.Itoa(e.Field)
}

func (e Lambda) String() string { return "fun => " + e.Body.String() }

// C returns a constant reference.
func C(name string) Const { return Const{Name: name} }

// B returns a bound-variable reference.
func B(index int) Bound { return Bound{Index: index} }

// Hole returns a named unresolved placeholder.
func Hole(name string) Meta { return Meta{Name: name} }

// Nat returns a natural-number literal.
func Nat(n uint64) Lit { return Lit{Kind: LitNat, Value: strconv.FormatUint(n, 10)} }

// Str returns a string literal.
func Str(s string) Lit { return Lit{Kind: LitString, Value: s} }

// Apply curries fn over args left-to-right.
func Apply(fn Expr, args ...Expr) Expr {
	e := fn
	for _, a := range args {
		e = App{Fn: e, Arg: a}
	}
	return e
}

// Spine decomposes e into its application head and argument list.
// Spine(f(a, b)) returns (f, [a, b]); non-applications return (e, nil).
func Spine(e Expr) (Expr, []Expr) {
	var args []Expr
	for {
		app, ok := e.(App)
		if !ok {
			break
		}
		args = append(args, app.Arg)
		e = app.Fn
	}
	// Arguments were collected innermost-first.
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	return e, args
}
