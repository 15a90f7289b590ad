// Package pv provides a stateful, connection-aware client facade over
// a channel provider: one long-lived handle per named process variable
// that tracks connection state, caches the latest value and metadata,
// fans subscription updates out to ordered user callbacks, and exposes
// synchronous Get/Put with configurable blocking semantics.
//
// Handles are safe for concurrent use from arbitrary goroutines while
// the provider's notification goroutine delivers connect, disconnect,
// value and access-rights events.
package pv
