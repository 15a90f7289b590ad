package dbr

import "time"

// epochOffset is the protocol epoch (1990-01-01T00:00:00Z) expressed
// as UNIX seconds. Wire timestamps count seconds from this epoch.
const epochOffset int64 = 631152000

// EpochToTime converts a wire timestamp (seconds since the protocol
// epoch plus nanoseconds) to a time.Time in UTC.
func EpochToTime(seconds, nanoseconds uint32) time.Time {
	return time.Unix(epochOffset+int64(seconds), int64(nanoseconds)).UTC()
}

// TimeToEpoch converts a time.Time to wire timestamp components.
// Times before the protocol epoch yield zero seconds.
func TimeToEpoch(t time.Time) (seconds, nanoseconds uint32) {
	secs := t.Unix() - epochOffset
	if secs < 0 {
		return 0, 0
	}
	return uint32(secs), uint32(t.Nanosecond())
}

// PosixSeconds returns the UNIX seconds corresponding to a wire
// timestamp's seconds component.
func PosixSeconds(seconds uint32) int64 {
	return epochOffset + int64(seconds)
}
