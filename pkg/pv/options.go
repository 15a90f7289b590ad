package pv

import (
	"log/slog"
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pvlog"
)

// Default timeouts.
const (
	// DefaultConnectionTimeout bounds WaitForConnection when the
	// caller supplies none.
	DefaultConnectionTimeout = 1 * time.Second

	// defaultEnsureTimeout bounds the connect-on-demand step of public
	// accessors when the operation supplies no timeout.
	defaultEnsureTimeout = 5 * time.Second

	// DefaultPutTimeout bounds a waiting put when the caller supplies
	// none.
	DefaultPutTimeout = 30 * time.Second
)

// MonitorPolicy controls whether a handle keeps a live subscription.
type MonitorPolicy uint8

const (
	// MonitorAuto decides on connect: monitoring is enabled when the
	// element count is below dbr.AutoMonitorMaxLength.
	MonitorAuto MonitorPolicy = iota
	// MonitorOn always keeps a subscription.
	MonitorOn
	// MonitorOff never subscribes; every get goes to the network.
	MonitorOff
)

// String returns the policy name.
func (m MonitorPolicy) String() string {
	switch m {
	case MonitorAuto:
		return "auto"
	case MonitorOn:
		return "on"
	case MonitorOff:
		return "off"
	default:
		return "UNKNOWN"
	}
}

// Options configures a new handle. The zero value requests the time
// form, auto-monitoring with the default event mask, and the default
// connection timeout.
type Options struct {
	// Form selects the metadata richness of monitor updates and
	// default gets. The zero dbr.Form is the time form.
	Form dbr.Form

	// Monitor is the auto-monitor policy.
	Monitor MonitorPolicy

	// Mask overrides the subscription event mask. A non-zero mask
	// implies MonitorOn.
	Mask dbr.EventMask

	// Count limits array transfers to this many elements. 0 means the
	// native count.
	Count int

	// ConnectionTimeout bounds WaitForConnection when the caller
	// supplies none. 0 means DefaultConnectionTimeout.
	ConnectionTimeout time.Duration

	// ConnectionCallback, if set, is registered before the channel is
	// requested so no transition is missed.
	ConnectionCallback ConnectionCallback

	// AccessCallback, if set, is registered before the channel is
	// requested.
	AccessCallback AccessCallback

	// Callback, if set, is registered as user callback index 0.
	Callback Callback

	// Logger receives operational log records. Nil means
	// slog.Default().
	Logger *slog.Logger

	// EventLog receives protocol capture events. Nil disables capture.
	EventLog pvlog.Logger
}

// GetOptions shapes one read.
type GetOptions struct {
	// Count explicitly limits array data. 0 means the handle default.
	Count int

	// AsString requests the display form: formatted enum names, char
	// waveforms as text.
	AsString bool

	// AsList converts array results to a generic []any instead of a
	// typed slice.
	AsList bool

	// NoMonitor forces a network read even when a live monitor cache
	// is available.
	NoMonitor bool

	// WithCtrlVars fetches a control-form record first when the
	// handle's form does not already carry control metadata.
	WithCtrlVars bool

	// Timeout bounds the read. 0 derives a default from the count.
	Timeout time.Duration

	// Form overrides the handle's form for this read.
	Form *dbr.Form
}

// PutOptions shapes one write.
type PutOptions struct {
	// Wait blocks until the server acknowledges processing.
	Wait bool

	// UseComplete records completion into the handle's put-complete
	// flag instead of blocking.
	UseComplete bool

	// OnComplete, if set, fires once the completion notification is
	// received.
	OnComplete func()

	// Timeout bounds a waiting put. 0 means DefaultPutTimeout.
	Timeout time.Duration
}

// CallbackOptions shapes AddCallback.
type CallbackOptions struct {
	// RunNow performs an immediate get and dispatches this callback
	// once if still connected.
	RunNow bool

	// NoCtrlVars skips the eager control-metadata fetch.
	NoCtrlVars bool

	// Index must be left zero; indices are always assigned internally.
	// A non-zero value is rejected.
	Index int

	// Extra is an opaque bag merged into every Update delivered to
	// this callback.
	Extra map[string]any
}
