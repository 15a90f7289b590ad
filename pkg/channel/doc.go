// Package channel defines the provider surface the PV facade consumes:
// a Provider that hands out per-variable Channels offering connect,
// read, write, subscribe and state-change notification primitives.
//
// Wire framing, socket management and circuit multiplexing live behind
// these interfaces; the facade never sees them.
package channel
