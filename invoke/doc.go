// Package invoke defines the invocation descriptor handed to the guardrail
// pipelines by whatever interception layer triggers them.
//
// An Invocation carries the target object, the method identity, positional
// and named arguments, and the Proceed continuation that runs the protected
// method. The engine never reflects over the host's types: the descriptor is
// an explicit value the host constructs at the call boundary.
package invoke
