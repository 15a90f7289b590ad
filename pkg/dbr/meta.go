package dbr

// ResponseMeta is the structured metadata of a decoded read response or
// monitor update. Which fields are present depends on the form of the
// request; absent fields are nil.
type ResponseMeta struct {
	// Status and Severity are present on status, time, graphic and
	// control forms.
	Status   *int16
	Severity *int16

	// HasTimestamp marks the Seconds/Nanoseconds pair valid (time
	// forms only). Seconds counts from the protocol epoch.
	HasTimestamp bool
	Seconds      uint32
	Nanoseconds  uint32

	// Precision is present on float/double graphic and control forms.
	Precision *int16

	// Units is the raw units field (graphic and control forms of
	// non-enum types).
	Units []byte

	// EnumStrings is the raw ordered name list (graphic and control
	// forms of enum types). Nil when the response carries none.
	EnumStrings [][]byte

	// Display, alarm and warning limits (graphic and control forms).
	UpperDispLimit    *float64
	LowerDispLimit    *float64
	UpperAlarmLimit   *float64
	UpperWarningLimit *float64
	LowerWarningLimit *float64
	LowerAlarmLimit   *float64

	// Control limits (control forms only).
	UpperCtrlLimit *float64
	LowerCtrlLimit *float64
}
