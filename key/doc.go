// Package key derives deterministic, equality-comparable keys from guarded
// invocations.
//
// The default policy mirrors what callers expect from method-level caching:
// zero arguments collapse to a canonical empty key, a single argument is its
// own key, and multiple arguments form a composite over positional and named
// values. Conditional generators can claim specific methods; a Composite
// chains them by explicit priority with the default policy as the final
// fallback.
package key
