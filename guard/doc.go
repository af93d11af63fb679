// Package guard wires the cache and rate-limit pipelines around method
// invocations.
//
// A host wraps a method call in an invoke.Invocation and hands it to one
// of the interceptors together with a declarative spec. CacheInterceptor
// runs invalidation, read-through, write-through, and miss completion in
// a fixed order; LimitInterceptor consumes from every resolved limit
// store before the call and compensates in reverse order when a store
// denies the call or the call itself fails. Backend resolution follows a
// fixed precedence: a named resolver override, then a named manager
// override, then the declared backend names through the default manager.
package guard
