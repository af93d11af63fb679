// Package condition provides the boolean expression tree that gates whether
// a caching or rate-limiting policy applies to an invocation.
//
// Combinators (Always, Never, And, Or, Not, Nor) follow short-circuit
// semantics, and property predicates compare named configuration properties
// by equality, existence, or regular expression. Evaluation is side-effect
// free.
package condition
