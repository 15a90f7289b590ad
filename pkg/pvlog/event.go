package pvlog

import (
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
)

// Event is one captured client event. CBOR encoding uses integer keys
// for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the capturing client session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// PV is the variable name the event belongs to.
	PV string `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"5,keyasint,omitempty"`
	Op          *OpEvent          `cbor:"6,keyasint,omitempty"`
	Monitor     *MonitorEvent     `cbor:"7,keyasint,omitempty"`
	Access      *AccessEvent      `cbor:"8,keyasint,omitempty"`
	Error       *ErrorEvent       `cbor:"9,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a connection state change.
	CategoryState Category = 0
	// CategoryOp indicates a synchronous get or put.
	CategoryOp Category = 1
	// CategoryMonitor indicates a subscription update.
	CategoryMonitor Category = 2
	// CategoryAccess indicates an access-rights change.
	CategoryAccess Category = 3
	// CategoryError indicates a failed operation.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryOp:
		return "OP"
	case CategoryMonitor:
		return "MONITOR"
	case CategoryAccess:
		return "ACCESS"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as used on the pvlog command
// line (case-sensitive, lower case).
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "state":
		return CategoryState, true
	case "op":
		return CategoryOp, true
	case "monitor":
		return CategoryMonitor, true
	case "access":
		return CategoryAccess, true
	case "error":
		return CategoryError, true
	default:
		return 0, false
	}
}

// StateChangeEvent captures a handle connection state transition.
type StateChangeEvent struct {
	// OldState is the previous state name (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state name.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// OpKind distinguishes get and put operations.
type OpKind uint8

const (
	// OpGet is a synchronous read.
	OpGet OpKind = 0
	// OpPut is a synchronous write.
	OpPut OpKind = 1
)

// String returns the operation kind name.
func (k OpKind) String() string {
	switch k {
	case OpGet:
		return "GET"
	case OpPut:
		return "PUT"
	default:
		return "UNKNOWN"
	}
}

// OpEvent captures one synchronous operation.
type OpEvent struct {
	// Kind is get or put.
	Kind OpKind `cbor:"1,keyasint"`

	// DataType is the wire type the operation used.
	DataType dbr.FieldType `cbor:"2,keyasint"`

	// Count is the element count transferred (0 = native).
	Count int `cbor:"3,keyasint,omitempty"`

	// Duration is how long the operation took.
	// Stored as nanoseconds.
	Duration time.Duration `cbor:"4,keyasint,omitempty"`
}

// MonitorEvent captures one subscription update.
type MonitorEvent struct {
	// DataType is the wire type of the update.
	DataType dbr.FieldType `cbor:"1,keyasint"`

	// Count is the element count delivered.
	Count int `cbor:"2,keyasint,omitempty"`
}

// AccessEvent captures an access-rights change.
type AccessEvent struct {
	// Read is the new read permission.
	Read bool `cbor:"1,keyasint"`

	// Write is the new write permission.
	Write bool `cbor:"2,keyasint"`
}

// ErrorEvent captures a failed operation.
type ErrorEvent struct {
	// Op names the operation that failed (connect, get, put).
	Op string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`
}
