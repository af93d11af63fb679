package condition

import (
	"context"

	"github.com/c360/guardrail/invoke"
)

// Condition gates whether a policy applies to an invocation. Evaluation has
// no side effects. Pipelines evaluate "unless" first (true skips the
// operation), then "condition" (false skips it).
type Condition interface {
	Evaluate(ctx context.Context, inv *invoke.Invocation) (bool, error)
}

// Func adapts a function to the Condition interface.
type Func func(ctx context.Context, inv *invoke.Invocation) (bool, error)

// Evaluate calls the function.
func (f Func) Evaluate(ctx context.Context, inv *invoke.Invocation) (bool, error) {
	return f(ctx, inv)
}

type always struct{}

func (always) Evaluate(context.Context, *invoke.Invocation) (bool, error) { return true, nil }

type never struct{}

func (never) Evaluate(context.Context, *invoke.Invocation) (bool, error) { return false, nil }

// Always returns a condition that is always true.
func Always() Condition { return always{} }

// Never returns a condition that is always false.
func Never() Condition { return never{} }

type and struct{ a, b Condition }

// Evaluate short-circuits on the first false.
func (c and) Evaluate(ctx context.Context, inv *invoke.Invocation) (bool, error) {
	ok, err := c.a.Evaluate(ctx, inv)
	if err != nil || !ok {
		return false, err
	}
	return c.b.Evaluate(ctx, inv)
}

type or struct{ a, b Condition }

// Evaluate short-circuits on the first true.
func (c or) Evaluate(ctx context.Context, inv *invoke.Invocation) (bool, error) {
	ok, err := c.a.Evaluate(ctx, inv)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return c.b.Evaluate(ctx, inv)
}

type not struct{ a Condition }

func (c not) Evaluate(ctx context.Context, inv *invoke.Invocation) (bool, error) {
	ok, err := c.a.Evaluate(ctx, inv)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// And is true when both conditions are true. The second condition is not
// evaluated when the first is false.
func And(a, b Condition) Condition { return and{a: a, b: b} }

// Or is true when either condition is true. The second condition is not
// evaluated when the first is true.
func Or(a, b Condition) Condition { return or{a: a, b: b} }

// Not inverts a condition.
func Not(a Condition) Condition { return not{a: a} }

// Nor is true when neither condition is true.
func Nor(a, b Condition) Condition { return and{a: not{a: a}, b: not{a: b}} }
