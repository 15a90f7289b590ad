// Package pvlog captures client-side protocol events (connection state
// changes, reads, writes, monitor updates, access-rights changes,
// errors) for later analysis.
//
// Events are written through the Logger interface. FileLogger persists
// them as a CBOR stream, SlogAdapter mirrors them to a slog.Logger,
// MultiLogger fans out to several sinks, and Reader iterates a captured
// file.
package pvlog
