package invoke

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Method identifies the guarded method: the receiver type name and the
// method name. Two invocations of the same method compare equal on Method.
type Method struct {
	Receiver string
	Name     string
}

// String returns the canonical "Receiver.Name" form.
func (m Method) String() string {
	if m.Receiver == "" {
		return m.Name
	}
	return m.Receiver + "." + m.Name
}

// ProceedFunc is the continuation that runs the protected method. It is
// supplied by the interception layer and called at most once per invocation.
type ProceedFunc func(ctx context.Context) (any, error)

// Invocation describes one guarded call: the target object, the method
// identity, positional and named arguments, and the continuation that runs
// the protected method. Invocations are created by the interception layer,
// handed to a pipeline, and discarded after the call.
type Invocation struct {
	id        string
	target    any
	method    Method
	args      []any
	namedArgs map[string]any

	mu       sync.Mutex
	proceed  ProceedFunc
	invoked  bool
	result   any
	proceedE error
}

// Option configures an Invocation at construction.
type Option func(*Invocation)

// WithArgs sets the positional arguments.
func WithArgs(args ...any) Option {
	return func(inv *Invocation) {
		inv.args = args
	}
}

// WithNamedArgs sets the named arguments.
func WithNamedArgs(named map[string]any) Option {
	return func(inv *Invocation) {
		inv.namedArgs = named
	}
}

// WithID overrides the generated invocation ID. Useful for tests and for
// hosts that correlate invocations with their own tracing.
func WithID(id string) Option {
	return func(inv *Invocation) {
		if id != "" {
			inv.id = id
		}
	}
}

// NewInvocation creates an invocation descriptor with a generated unique ID.
// The proceed continuation may be nil for descriptors used only for key
// generation or condition evaluation.
func NewInvocation(target any, method Method, proceed ProceedFunc, opts ...Option) *Invocation {
	inv := &Invocation{
		id:      uuid.New().String(),
		target:  target,
		method:  method,
		proceed: proceed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(inv)
		}
	}
	return inv
}

// ID returns the unique invocation identifier.
func (inv *Invocation) ID() string { return inv.id }

// Target returns the object the guarded method is invoked on.
func (inv *Invocation) Target() any { return inv.target }

// Method returns the method identity.
func (inv *Invocation) Method() Method { return inv.method }

// Args returns the positional arguments. The slice is shared, not copied;
// callers must not mutate it.
func (inv *Invocation) Args() []any { return inv.args }

// NamedArgs returns the named arguments, nil when none were supplied.
func (inv *Invocation) NamedArgs() map[string]any { return inv.namedArgs }

// Proceed runs the protected method. A second call does not re-invoke the
// method: it returns the memoized result of the first call, so pipeline
// stages that race on completion observe one consistent outcome.
func (inv *Invocation) Proceed(ctx context.Context) (any, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.invoked {
		return inv.result, inv.proceedE
	}
	if inv.proceed == nil {
		return nil, fmt.Errorf("invoke: %s has no proceed continuation", inv.method)
	}

	inv.invoked = true
	inv.result, inv.proceedE = inv.proceed(ctx)
	return inv.result, inv.proceedE
}

// Invoked reports whether the protected method has run.
func (inv *Invocation) Invoked() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.invoked
}
