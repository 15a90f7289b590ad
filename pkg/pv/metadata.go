package pv

import (
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
)

// Metadata is the handle's cached record of a variable's last-known
// value and metadata. Nil pointer fields have never been observed;
// after a disconnect the record goes stale but is retained.
type Metadata struct {
	// Name is the variable name.
	Name string

	// Value is the coerced application-facing value: a scalar for
	// single-element non-char/string data, otherwise an array.
	Value any

	// RawValue is the decoded value array of the last response. Nil
	// until the first read or monitor update.
	RawValue *dbr.Array

	// CharValue is the display text of the last response. Unresolved
	// for numeric data and for enum data whose name list is unknown.
	CharValue dbr.Display

	// Status and Severity are the last alarm condition, when a
	// status-bearing form has been read.
	Status   *int16
	Severity *int16

	// Timestamp is the server timestamp of the last time-form
	// response; PosixSeconds/Nanoseconds are its integer components.
	// HasTimestamp marks them valid.
	HasTimestamp bool
	Timestamp    time.Time
	PosixSeconds int64
	Nanoseconds  int32

	// Precision is the display precision, when a control form has
	// been read on a float-typed variable.
	Precision *int16

	// Units is the engineering units string. Nil until a graphic or
	// control form has been read.
	Units *string

	// EnumStrs is the ordered enum name list. Nil until known.
	EnumStrs []string

	// Display, alarm, warning and control limits.
	UpperDispLimit    *float64
	LowerDispLimit    *float64
	UpperAlarmLimit   *float64
	LowerAlarmLimit   *float64
	UpperWarningLimit *float64
	LowerWarningLimit *float64
	UpperCtrlLimit    *float64
	LowerCtrlLimit    *float64

	// HasType marks Type/TypeFull/NativeCount valid; they are
	// captured on the first connect.
	HasType bool

	// Type is the server-declared native field type.
	Type dbr.FieldType

	// TypeFull is Type promoted to the handle's form.
	TypeFull dbr.FieldType

	// NativeCount is the server-declared element count.
	NativeCount int

	// ElementCount is the server-declared element count. A handle's
	// explicit count limits transfers but does not change this field.
	ElementCount int

	// HasAccess marks the access fields valid.
	HasAccess bool

	// ReadAccess and WriteAccess are the current channel permissions;
	// Access is their conventional string form.
	ReadAccess  bool
	WriteAccess bool
	Access      string

	// PutComplete reports whether the last put issued with completion
	// notification has finished. Meaningless otherwise.
	PutComplete bool
}

// Clone returns a deep copy; callbacks receive clones so a slow or
// misbehaving observer cannot see later cache merges.
func (m *Metadata) Clone() Metadata {
	out := *m
	if m.RawValue != nil {
		raw := *m.RawValue
		out.RawValue = &raw
	}
	out.Status = cloneI16(m.Status)
	out.Severity = cloneI16(m.Severity)
	out.Precision = cloneI16(m.Precision)
	if m.Units != nil {
		u := *m.Units
		out.Units = &u
	}
	if m.EnumStrs != nil {
		out.EnumStrs = append([]string(nil), m.EnumStrs...)
	}
	out.UpperDispLimit = cloneF64(m.UpperDispLimit)
	out.LowerDispLimit = cloneF64(m.LowerDispLimit)
	out.UpperAlarmLimit = cloneF64(m.UpperAlarmLimit)
	out.LowerAlarmLimit = cloneF64(m.LowerAlarmLimit)
	out.UpperWarningLimit = cloneF64(m.UpperWarningLimit)
	out.LowerWarningLimit = cloneF64(m.LowerWarningLimit)
	out.UpperCtrlLimit = cloneF64(m.UpperCtrlLimit)
	out.LowerCtrlLimit = cloneF64(m.LowerCtrlLimit)
	return out
}

func cloneI16(p *int16) *int16 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneF64(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// apply merges a translated response into the record. Value, RawValue
// and CharValue always move together; metadata fields only overwrite
// when the response carried them.
func (m *Metadata) apply(rec *record) {
	raw := rec.Raw
	m.RawValue = &raw
	m.Value = rec.Value
	m.CharValue = rec.Char

	if rec.Status != nil {
		m.Status = rec.Status
	}
	if rec.Severity != nil {
		m.Severity = rec.Severity
	}
	if rec.HasTimestamp {
		m.HasTimestamp = true
		m.Timestamp = rec.Timestamp
		m.PosixSeconds = rec.PosixSeconds
		m.Nanoseconds = rec.Nanoseconds
	}
	if rec.Precision != nil {
		m.Precision = rec.Precision
	}
	if rec.Units != nil {
		m.Units = rec.Units
	}
	if rec.EnumStrs != nil {
		m.EnumStrs = rec.EnumStrs
	}
	if rec.UpperDispLimit != nil {
		m.UpperDispLimit = rec.UpperDispLimit
	}
	if rec.LowerDispLimit != nil {
		m.LowerDispLimit = rec.LowerDispLimit
	}
	if rec.UpperAlarmLimit != nil {
		m.UpperAlarmLimit = rec.UpperAlarmLimit
	}
	if rec.LowerAlarmLimit != nil {
		m.LowerAlarmLimit = rec.LowerAlarmLimit
	}
	if rec.UpperWarningLimit != nil {
		m.UpperWarningLimit = rec.UpperWarningLimit
	}
	if rec.LowerWarningLimit != nil {
		m.LowerWarningLimit = rec.LowerWarningLimit
	}
	if rec.UpperCtrlLimit != nil {
		m.UpperCtrlLimit = rec.UpperCtrlLimit
	}
	if rec.LowerCtrlLimit != nil {
		m.LowerCtrlLimit = rec.LowerCtrlLimit
	}
}
