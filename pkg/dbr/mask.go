package dbr

// EventMask selects which kinds of changes a subscription reports.
type EventMask uint8

const (
	// EventValue triggers on a significant change of the value.
	EventValue EventMask = 1
	// EventLog triggers on an archive-significant change of the value.
	EventLog EventMask = 2
	// EventAlarm triggers on an alarm state change.
	EventAlarm EventMask = 4
	// EventProperty triggers on a property change (limits, precision,
	// enum names).
	EventProperty EventMask = 8
)

// DefaultEventMask is the subscription mask used by auto-monitoring
// handles.
const DefaultEventMask = EventValue | EventAlarm

// AutoMonitorMaxLength is the native element count at or above which a
// handle does not default to auto-monitoring. Large arrays are fetched
// on demand instead of streamed.
const AutoMonitorMaxLength = 65536
