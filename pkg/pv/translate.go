package pv

import (
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

// record is the translated form of one read or monitor response: the
// slice of Metadata a single response can carry.
type record struct {
	Value any
	Raw   dbr.Array
	Char  dbr.Display

	Status   *int16
	Severity *int16

	HasTimestamp bool
	Timestamp    time.Time
	PosixSeconds int64
	Nanoseconds  int32

	Precision *int16
	Units     *string
	EnumStrs  []string

	UpperDispLimit    *float64
	LowerDispLimit    *float64
	UpperAlarmLimit   *float64
	LowerAlarmLimit   *float64
	UpperWarningLimit *float64
	LowerWarningLimit *float64
	UpperCtrlLimit    *float64
	LowerCtrlLimit    *float64
}

// translateResponse converts a decoded response into a flat record.
// fullType is the type the handle requested (it decides display
// handling); fallbackEnums is consulted when the response itself
// carries no enum names.
func translateResponse(fullType dbr.FieldType, resp *channel.ReadResponse, fallbackEnums []string) *record {
	rec := &record{}
	parseMeta(rec, &resp.Meta)

	rec.Raw = resp.Data
	rec.Value = scalarify(resp.Data, resp.DataType, resp.DataCount)

	switch fullType.Class() {
	case dbr.ClassChar:
		if resp.Data.Class() != dbr.ClassChar {
			// Char data fetched through its int equivalent carries no
			// text to display.
			rec.Char = dbr.Unresolved
			break
		}
		// Null-terminated byte sequence, truncated at the first NUL.
		b := resp.Data.Bytes()
		if nul := indexNul(b); nul >= 0 {
			b = b[:nul]
		}
		rec.Char = dbr.ResolvedDisplay(dbr.DecodeText(b))

	case dbr.ClassString:
		strs := resp.Data.StringSlice()
		rec.Char = dbr.ResolvedDisplay(strs...)
		if len(strs) == 1 {
			rec.Value = strs[0]
		} else {
			rec.Value = strs
		}

	case dbr.ClassEnum:
		names := rec.EnumStrs
		if names == nil {
			names = fallbackEnums
		}
		if names == nil {
			// Left unresolved so a later control-form fetch can
			// supply the names instead of guessing here.
			rec.Char = dbr.Unresolved
		} else {
			indices := resp.Data.EnumSlice()
			items := make([]string, len(indices))
			for i, idx := range indices {
				if int(idx) < len(names) {
					items[i] = names[idx]
				}
			}
			rec.Char = dbr.ResolvedDisplay(items...)
		}

	default:
		rec.Char = dbr.Unresolved
	}

	return rec
}

// parseMeta copies the metadata attributes the response carries.
func parseMeta(rec *record, meta *dbr.ResponseMeta) {
	rec.Status = meta.Status
	rec.Severity = meta.Severity
	rec.Precision = meta.Precision

	if meta.Units != nil {
		units := dbr.DecodeText(meta.Units)
		rec.Units = &units
	}

	if meta.EnumStrings != nil {
		names := make([]string, len(meta.EnumStrings))
		for i, raw := range meta.EnumStrings {
			names[i] = dbr.DecodeText(raw)
		}
		rec.EnumStrs = names
	}

	if meta.HasTimestamp {
		rec.HasTimestamp = true
		rec.Timestamp = dbr.EpochToTime(meta.Seconds, meta.Nanoseconds)
		rec.PosixSeconds = dbr.PosixSeconds(meta.Seconds)
		rec.Nanoseconds = int32(meta.Nanoseconds)
	}

	rec.UpperDispLimit = meta.UpperDispLimit
	rec.LowerDispLimit = meta.LowerDispLimit
	rec.UpperAlarmLimit = meta.UpperAlarmLimit
	rec.LowerAlarmLimit = meta.LowerAlarmLimit
	rec.UpperWarningLimit = meta.UpperWarningLimit
	rec.LowerWarningLimit = meta.LowerWarningLimit
	rec.UpperCtrlLimit = meta.UpperCtrlLimit
	rec.LowerCtrlLimit = meta.LowerCtrlLimit
}

// scalarify collapses a single-element array of a non-char, non-string
// type to a bare scalar.
func scalarify(data dbr.Array, dataType dbr.FieldType, count int) any {
	class := dataType.Class()
	if count == 1 && class != dbr.ClassChar && class != dbr.ClassString && data.Len() >= 1 {
		return data.At(0)
	}
	return data.Value()
}

func indexNul(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
