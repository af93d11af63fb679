// Package notify carries store lifecycle notifications to interested
// observers without coupling stores to any delivery mechanism.
//
// Stores emit CacheEvent and LimitEvent values through the Sink interface.
// SlogSink logs them, NATSSink publishes them as JSON to subjects, Multi
// fans out to several sinks, and Dispatcher turns any sink asynchronous
// behind a bounded queue with drop accounting so a slow consumer can never
// stall a store operation. A store configured without a sink behaves
// identically, minus the events.
package notify
