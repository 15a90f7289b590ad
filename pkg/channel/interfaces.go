package channel

import (
	"context"
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
)

// ConnState is the connection state reported to connection callbacks.
type ConnState uint8

const (
	// Disconnected indicates the channel has no server connection.
	Disconnected ConnState = iota
	// Connecting indicates a search or connection attempt is running.
	Connecting
	// Connected indicates the channel is usable.
	Connected
	// Closed indicates the channel was torn down and will not return.
	Closed
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectionCallback is invoked by the provider's notification
// goroutine whenever a channel's connection state changes.
type ConnectionCallback func(ch Channel, state ConnState)

// AccessCallback is invoked whenever a channel's access rights change.
type AccessCallback func(ch Channel, rights dbr.AccessRights)

// SubscriptionCallback receives monitor updates.
type SubscriptionCallback func(sub Subscription, resp *ReadResponse)

// ReadResponse is a decoded read or monitor response: the typed value
// array plus whatever metadata the requested form carries.
type ReadResponse struct {
	// DataType is the field type the response was served as.
	DataType dbr.FieldType

	// DataCount is the declared element count.
	DataCount int

	// Data is the decoded value array in native byte order.
	Data dbr.Array

	// Meta holds the form-dependent metadata.
	Meta dbr.ResponseMeta
}

// WriteOptions controls write blocking and completion semantics.
type WriteOptions struct {
	// Wait blocks the call until the server acknowledges processing.
	Wait bool

	// Notify requests a completion notification from the server.
	// Without it the write is fire-and-forget and OnComplete never
	// runs.
	Notify bool

	// OnComplete, if set, is invoked once the completion notification
	// arrives.
	OnComplete func()

	// Timeout bounds a waiting write.
	Timeout time.Duration
}

// Provider hands out channels for named variables. Implementations are
// shared across handles and must be safe for concurrent use.
type Provider interface {
	// PVs returns one channel per name, in input order. The callbacks
	// are registered before any connection attempt, so no transition
	// is missed.
	PVs(names []string, connCB ConnectionCallback, accessCB AccessCallback) ([]Channel, error)
}

// Channel is the protocol-level connection for one variable.
type Channel interface {
	// Name returns the variable name the channel was created for.
	Name() string

	// Connected reports whether the channel currently has a server.
	Connected() bool

	// WaitForConnection blocks until the channel connects, the timeout
	// elapses, or ctx is done.
	WaitForConnection(ctx context.Context, timeout time.Duration) error

	// NativeType returns the server-declared field type. Valid only
	// while connected.
	NativeType() dbr.FieldType

	// NativeCount returns the server-declared element count. Valid
	// only while connected.
	NativeCount() int

	// AccessRights returns the current access rights.
	AccessRights() dbr.AccessRights

	// Read performs one read of count elements as dataType. count 0
	// requests the native count.
	Read(ctx context.Context, dataType dbr.FieldType, count int, timeout time.Duration) (*ReadResponse, error)

	// Write sends a value to the server.
	Write(ctx context.Context, value dbr.Array, opts WriteOptions) error

	// Subscribe establishes a monitor delivering updates of count
	// elements as dataType for events matching mask. count 0 requests
	// the native count.
	Subscribe(dataType dbr.FieldType, count int, mask dbr.EventMask) (Subscription, error)

	// GoIdle releases the server connection. The channel may be
	// reconnected later by the provider.
	GoIdle() error
}

// Subscription is a live monitor on one channel.
type Subscription interface {
	// AddCallback registers fn for updates and returns its token.
	AddCallback(fn SubscriptionCallback) int

	// RemoveCallback unregisters a callback by token.
	RemoveCallback(id int)

	// Cancel tears the monitor down.
	Cancel() error
}
