package discrim_test

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/hupe1980/discrim"
	"github.com/hupe1980/discrim/expr"
)

func Example() {
	ctx := context.Background()

	eq := func(a, b expr.Expr) expr.Expr { return expr.Apply(expr.C("Eq"), a, b) }
	mul := func(a, b expr.Expr) expr.Expr { return expr.Apply(expr.C("Mul"), a, b) }
	add := func(a, b expr.Expr) expr.Expr { return expr.Apply(expr.C("Add"), a, b) }

	corpus := []discrim.Declaration{
		{
			Name:       "mul_comm",
			Conclusion: eq(mul(expr.B(1), expr.B(0)), mul(expr.B(0), expr.B(1))),
			Priority:   2,
		},
		{
			Name:       "add_zero",
			Conclusion: eq(add(expr.B(0), expr.Nat(0)), expr.B(0)),
			Priority:   1,
		},
	}

	ix, err := discrim.Build(ctx, slices.Values(corpus))
	if err != nil {
		log.Fatal(err)
	}

	// Goal: ?x * ?y = ?y * ?x with both holes unresolved.
	goal := eq(
		mul(expr.Hole("x"), expr.Hole("y")),
		mul(expr.Hole("y"), expr.Hole("x")),
	)

	matches, err := ix.Query(ctx, goal, 10)
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range matches {
		fmt.Printf("%s (priority %d)\n", m.Name, m.Priority)
	}
	// Output:
	// mul_comm (priority 2)
}
