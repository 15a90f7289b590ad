package pvlog

// Logger is the interface applications implement to receive client
// protocol events. Pass nil or NoopLogger to disable capture.
type Logger interface {
	// Log records one event. Implementations must be thread-safe and
	// should return quickly; blocking here stalls the notification
	// path.
	Log(event Event)
}

// NoopLogger discards all events. Usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
