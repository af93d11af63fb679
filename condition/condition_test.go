package condition

import (
	"context"
	"errors"
	"testing"

	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/invoke"
)

func eval(t *testing.T, c Condition) bool {
	t.Helper()
	inv := invoke.NewInvocation(nil, invoke.Method{Name: "op"}, nil)
	ok, err := c.Evaluate(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected evaluation error: %v", err)
	}
	return ok
}

func TestCombinatorTruthTable(t *testing.T) {
	T, F := Always(), Never()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"always", T, true},
		{"never", F, false},
		{"and TT", And(T, T), true},
		{"and TF", And(T, F), false},
		{"and FT", And(F, T), false},
		{"and FF", And(F, F), false},
		{"or TT", Or(T, T), true},
		{"or TF", Or(T, F), true},
		{"or FT", Or(F, T), true},
		{"or FF", Or(F, F), false},
		{"not T", Not(T), false},
		{"not F", Not(F), true},
		{"nor TT", Nor(T, T), false},
		{"nor TF", Nor(T, F), false},
		{"nor FT", Nor(F, T), false},
		{"nor FF", Nor(F, F), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval(t, tt.cond); got != tt.want {
				t.Errorf("got %t, want %t", got, tt.want)
			}
		})
	}
}

// tracked records whether it was evaluated, to verify short-circuiting.
type tracked struct {
	result    bool
	evaluated *bool
}

func (c tracked) Evaluate(context.Context, *invoke.Invocation) (bool, error) {
	*c.evaluated = true
	return c.result, nil
}

func TestShortCircuit(t *testing.T) {
	inv := invoke.NewInvocation(nil, invoke.Method{Name: "op"}, nil)

	var touched bool
	ok, err := And(Never(), tracked{result: true, evaluated: &touched}).Evaluate(context.Background(), inv)
	if err != nil || ok {
		t.Fatalf("And(false, _) = %t, %v", ok, err)
	}
	if touched {
		t.Error("And evaluated second operand after false")
	}

	touched = false
	ok, err = Or(Always(), tracked{result: false, evaluated: &touched}).Evaluate(context.Background(), inv)
	if err != nil || !ok {
		t.Fatalf("Or(true, _) = %t, %v", ok, err)
	}
	if touched {
		t.Error("Or evaluated second operand after true")
	}
}

func TestErrorPropagation(t *testing.T) {
	boom := errors.New("boom")
	failing := Func(func(context.Context, *invoke.Invocation) (bool, error) {
		return false, boom
	})
	inv := invoke.NewInvocation(nil, invoke.Method{Name: "op"}, nil)

	if _, err := And(failing, Always()).Evaluate(context.Background(), inv); !errors.Is(err, boom) {
		t.Errorf("And error = %v", err)
	}
	if _, err := Not(failing).Evaluate(context.Background(), inv); !errors.Is(err, boom) {
		t.Errorf("Not error = %v", err)
	}
}

func TestPropertyPredicates(t *testing.T) {
	src := config.MapSource{
		"env":    "Production",
		"region": "us-east-1",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals match", PropertyEquals(src, "region", "us-east-1"), true},
		{"equals case mismatch", PropertyEquals(src, "env", "production"), false},
		{"equals absent", PropertyEquals(src, "missing", "x"), false},
		{"not-equals", PropertyNotEquals(src, "region", "eu-west-1"), true},
		{"not-equals absent is true", PropertyNotEquals(src, "missing", "x"), true},
		{"equals fold", PropertyEqualsFold(src, "env", "production"), true},
		{"not-equals fold", PropertyNotEqualsFold(src, "env", "PRODUCTION"), false},
		{"exists", PropertyExists(src, "env"), true},
		{"exists absent", PropertyExists(src, "missing"), false},
		{"not-exists", PropertyNotExists(src, "missing"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval(t, tt.cond); got != tt.want {
				t.Errorf("got %t, want %t", got, tt.want)
			}
		})
	}
}

func TestPropertyMatches(t *testing.T) {
	src := config.MapSource{"region": "us-east-1"}

	cond, err := PropertyMatches(src, "region", `^us-`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if !eval(t, cond) {
		t.Error("expected regex match")
	}

	cond, err = PropertyMatches(src, "region", `^eu-`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if eval(t, cond) {
		t.Error("expected regex miss")
	}

	cond, err = PropertyMatches(src, "missing", `.*`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if eval(t, cond) {
		t.Error("absent property must not match")
	}

	if _, err := PropertyMatches(src, "region", `([`); err == nil {
		t.Error("expected compile error for invalid pattern")
	}
}
