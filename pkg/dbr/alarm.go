package dbr

// AlarmSeverity is the severity field carried by status, time and
// control form responses.
type AlarmSeverity int16

const (
	SeverityNone    AlarmSeverity = 0
	SeverityMinor   AlarmSeverity = 1
	SeverityMajor   AlarmSeverity = 2
	SeverityInvalid AlarmSeverity = 3
)

// String returns the severity name.
func (s AlarmSeverity) String() string {
	switch s {
	case SeverityNone:
		return "NO_ALARM"
	case SeverityMinor:
		return "MINOR"
	case SeverityMajor:
		return "MAJOR"
	case SeverityInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// AlarmStatus is the alarm condition code carried alongside the
// severity.
type AlarmStatus int16

const (
	StatusNone    AlarmStatus = 0
	StatusRead    AlarmStatus = 1
	StatusWrite   AlarmStatus = 2
	StatusHiHi    AlarmStatus = 3
	StatusHigh    AlarmStatus = 4
	StatusLoLo    AlarmStatus = 5
	StatusLow     AlarmStatus = 6
	StatusState   AlarmStatus = 7
	StatusCos     AlarmStatus = 8
	StatusComm    AlarmStatus = 9
	StatusTimeout AlarmStatus = 10
	StatusUDF     AlarmStatus = 17
)

// String returns the status name for the common codes.
func (s AlarmStatus) String() string {
	switch s {
	case StatusNone:
		return "NO_ALARM"
	case StatusRead:
		return "READ"
	case StatusWrite:
		return "WRITE"
	case StatusHiHi:
		return "HIHI"
	case StatusHigh:
		return "HIGH"
	case StatusLoLo:
		return "LOLO"
	case StatusLow:
		return "LOW"
	case StatusState:
		return "STATE"
	case StatusCos:
		return "COS"
	case StatusComm:
		return "COMM"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusUDF:
		return "UDF"
	default:
		return "UNKNOWN"
	}
}
