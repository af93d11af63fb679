// Package config provides the property source contract and engine settings
// for guardrail.
//
// A Source answers GetProperty lookups; MapSource, EnvSource and Layered
// cover static maps, process environment (with optional .env loading), and
// first-match-wins chains. Settings captures the static engine configuration
// (cache TTL and capacity defaults, backend auto-creation, observability
// toggles) and can be built from a Source or decoded from a generic
// configuration document.
package config
