package dbr

import "fmt"

// FieldType identifies a channel-access data type on the wire.
// The native types occupy the first block of seven; each richer form
// (status, time, graphic, control) repeats the block at a fixed offset.
type FieldType uint16

const (
	String FieldType = 0
	Int    FieldType = 1
	Float  FieldType = 2
	Enum   FieldType = 3
	Char   FieldType = 4
	Long   FieldType = 5
	Double FieldType = 6

	StsString FieldType = 7
	StsInt    FieldType = 8
	StsFloat  FieldType = 9
	StsEnum   FieldType = 10
	StsChar   FieldType = 11
	StsLong   FieldType = 12
	StsDouble FieldType = 13

	TimeString FieldType = 14
	TimeInt    FieldType = 15
	TimeFloat  FieldType = 16
	TimeEnum   FieldType = 17
	TimeChar   FieldType = 18
	TimeLong   FieldType = 19
	TimeDouble FieldType = 20

	// GrString (21) is not implemented by the protocol; StsString is
	// served in its place.
	GrString FieldType = 21
	GrInt    FieldType = 22
	GrFloat  FieldType = 23
	GrEnum   FieldType = 24
	GrChar   FieldType = 25
	GrLong   FieldType = 26
	GrDouble FieldType = 27

	// CtrlString (28) is not implemented by the protocol; TimeString is
	// served in its place.
	CtrlString FieldType = 28
	CtrlInt    FieldType = 29
	CtrlFloat  FieldType = 30
	CtrlEnum   FieldType = 31
	CtrlChar   FieldType = 32
	CtrlLong   FieldType = 33
	CtrlDouble FieldType = 34
)

// blockSize is the number of native types; each promoted form repeats
// the native block at a multiple of this offset.
const blockSize = 7

var fieldTypeNames = map[FieldType]string{
	String: "STRING", Int: "INT", Float: "FLOAT", Enum: "ENUM",
	Char: "CHAR", Long: "LONG", Double: "DOUBLE",
	StsString: "STS_STRING", StsInt: "STS_INT", StsFloat: "STS_FLOAT",
	StsEnum: "STS_ENUM", StsChar: "STS_CHAR", StsLong: "STS_LONG",
	StsDouble: "STS_DOUBLE",
	TimeString: "TIME_STRING", TimeInt: "TIME_INT", TimeFloat: "TIME_FLOAT",
	TimeEnum: "TIME_ENUM", TimeChar: "TIME_CHAR", TimeLong: "TIME_LONG",
	TimeDouble: "TIME_DOUBLE",
	GrString: "GR_STRING", GrInt: "GR_INT", GrFloat: "GR_FLOAT",
	GrEnum: "GR_ENUM", GrChar: "GR_CHAR", GrLong: "GR_LONG",
	GrDouble: "GR_DOUBLE",
	CtrlString: "CTRL_STRING", CtrlInt: "CTRL_INT", CtrlFloat: "CTRL_FLOAT",
	CtrlEnum: "CTRL_ENUM", CtrlChar: "CTRL_CHAR", CtrlLong: "CTRL_LONG",
	CtrlDouble: "CTRL_DOUBLE",
}

// String returns the field type name.
func (f FieldType) String() string {
	if name, ok := fieldTypeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", uint16(f))
}

// Native returns the native (value-only) type underlying f.
func (f FieldType) Native() FieldType {
	return f % blockSize
}

// Form is the metadata richness level of a request: native carries the
// value only, status adds alarm status/severity, time adds a timestamp,
// graphic adds display limits and units, control adds control limits.
// The zero Form is the time form, the conventional request default.
type Form uint8

const (
	FormTime Form = iota
	FormNative
	FormStatus
	FormGraphic
	FormControl
)

// String returns the form name.
func (fm Form) String() string {
	switch fm {
	case FormNative:
		return "native"
	case FormStatus:
		return "sts"
	case FormTime:
		return "time"
	case FormGraphic:
		return "gr"
	case FormControl:
		return "ctrl"
	default:
		return "UNKNOWN"
	}
}

// ParseForm parses a form name ("native", "sts", "time", "gr", "ctrl",
// with "control" accepted as an alias of "ctrl").
func ParseForm(s string) (Form, error) {
	switch s {
	case "native":
		return FormNative, nil
	case "sts", "status":
		return FormStatus, nil
	case "time":
		return FormTime, nil
	case "gr", "graphic":
		return FormGraphic, nil
	case "ctrl", "control":
		return FormControl, nil
	default:
		return FormNative, fmt.Errorf("unknown form %q", s)
	}
}

// Promote returns the variant of f carrying the requested form's
// metadata. f may itself already be a promoted type; it is demoted to
// its native type first. The string type has no graphic or control
// variants on the wire, so those promotions yield the status and time
// variants respectively.
func Promote(f FieldType, form Form) FieldType {
	native := f.Native()
	switch form {
	case FormTime:
		return native + TimeString
	case FormStatus:
		return native + StsString
	case FormGraphic:
		if native == String {
			return StsString
		}
		return native + GrString
	case FormControl:
		if native == String {
			return TimeString
		}
		return native + CtrlString
	default:
		return native
	}
}

// Form returns the metadata form carried by f.
func (f FieldType) Form() Form {
	switch f / blockSize {
	case 1:
		return FormStatus
	case 2:
		return FormTime
	case 3:
		return FormGraphic
	case 4:
		return FormControl
	default:
		return FormNative
	}
}

// IntEquivalent maps char-typed requests to the short-integer variant
// of the same form. Char data read without string formatting goes
// through this so the caller sees numbers rather than text.
func (f FieldType) IntEquivalent() FieldType {
	if f.Native() != Char {
		return f
	}
	return Promote(Int, f.Form())
}

// Class is the closed value classification of a field type. All
// type-driven handling (display text, scalar collapse, put shaping)
// branches on the class, never on the raw type code.
type Class uint8

const (
	// ClassNumeric covers INT, FLOAT, LONG and DOUBLE element types.
	ClassNumeric Class = iota
	// ClassString covers fixed-length string element types.
	ClassString
	// ClassChar covers byte (char waveform) element types.
	ClassChar
	// ClassEnum covers enumerated (index + name list) element types.
	ClassEnum
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassNumeric:
		return "numeric"
	case ClassString:
		return "string"
	case ClassChar:
		return "char"
	case ClassEnum:
		return "enum"
	default:
		return "UNKNOWN"
	}
}

// Class returns the value classification of f.
func (f FieldType) Class() Class {
	switch f.Native() {
	case String:
		return ClassString
	case Char:
		return ClassChar
	case Enum:
		return ClassEnum
	default:
		return ClassNumeric
	}
}
