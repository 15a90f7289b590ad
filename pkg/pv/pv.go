package pv

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pvlog"
)

// Callback receives value updates with a snapshot of the handle's
// cache.
type Callback func(u Update)

// Update is what a user callback receives: a cache snapshot, the
// callback's bound extra bag, its registration index, and the handle.
type Update struct {
	Meta  Metadata
	Extra map[string]any
	Index int
	PV    *PV
}

// ConnectionCallback is invoked on every connection state change.
type ConnectionCallback func(name string, connected bool, p *PV)

// AccessCallback is invoked on every access-rights change.
type AccessCallback func(read, write bool, p *PV)

type callbackEntry struct {
	fn    Callback
	extra map[string]any
}

// PV is a long-lived handle for one named process variable. It owns
// the connection state machine, the metadata cache, at most one live
// subscription, and the user callback registry.
type PV struct {
	name              string
	form              dbr.Form
	provider          channel.Provider
	logger            *slog.Logger
	eventLog          pvlog.Logger
	sessionID         string
	connectionTimeout time.Duration
	defaultCount      int

	// mu guards the connect transition: state capture, subscription
	// establishment and the local connected flag. The connect signal
	// is the handover to goroutines blocked in WaitForConnection.
	mu            sync.Mutex
	connectSig    *signal
	closed        bool
	connected     bool
	monitorPolicy MonitorPolicy
	monitorMask   dbr.EventMask
	ch            channel.Channel
	sub           channel.Subscription

	// argsMu guards the metadata cache. Merges are last-write-wins.
	argsMu sync.Mutex
	args   Metadata

	cbMu      sync.Mutex
	callbacks map[int]callbackEntry
	nextIndex int
	connCBs   []ConnectionCallback
	accessCBs []AccessCallback
}

// New creates a handle bound to name on the given provider. The
// channel is requested immediately; connection proceeds in the
// background and is awaited by WaitForConnection or any accessor.
func New(provider channel.Provider, name string, opts Options) (*PV, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, valueErrorf("pv name must not be empty")
	}
	if provider == nil {
		return nil, valueErrorf("pv %q: nil provider", name)
	}

	p := &PV{
		name:              name,
		form:              opts.Form,
		provider:          provider,
		logger:            opts.Logger,
		eventLog:          opts.EventLog,
		sessionID:         uuid.NewString(),
		connectionTimeout: opts.ConnectionTimeout,
		defaultCount:      opts.Count,
		connectSig:        newSignal(),
		monitorPolicy:     opts.Monitor,
		monitorMask:       dbr.DefaultEventMask,
		callbacks:         make(map[int]callbackEntry),
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.eventLog == nil {
		p.eventLog = pvlog.NoopLogger{}
	}
	if p.connectionTimeout <= 0 {
		p.connectionTimeout = DefaultConnectionTimeout
	}
	if opts.Mask != 0 {
		p.monitorMask = opts.Mask
		p.monitorPolicy = MonitorOn
	}
	p.args.Name = name

	if opts.ConnectionCallback != nil {
		p.connCBs = append(p.connCBs, opts.ConnectionCallback)
	}
	if opts.AccessCallback != nil {
		p.accessCBs = append(p.accessCBs, opts.AccessCallback)
	}
	if opts.Callback != nil {
		p.callbacks[p.nextIndex] = callbackEntry{fn: opts.Callback}
		p.nextIndex++
	}

	chs, err := provider.PVs([]string{name}, p.connectionStateChanged, p.accessRightsChanged)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.ch == nil {
		p.ch = chs[0]
	}
	p.mu.Unlock()

	if chs[0].Connected() && !p.connectSig.IsSet() {
		// The connection notification fired before our callback was
		// registered; replay it.
		p.connectionStateChanged(chs[0], channel.Connected)
	}

	return p, nil
}

// NewConnected creates a handle and waits for it to connect. The
// handle is disconnected and discarded on failure.
func NewConnected(ctx context.Context, provider channel.Provider, name string, opts Options, timeout time.Duration) (*PV, error) {
	p, err := New(provider, name, opts)
	if err != nil {
		return nil, err
	}
	if err := p.WaitForConnection(ctx, timeout); err != nil {
		_ = p.Disconnect()
		return nil, err
	}
	return p, nil
}

// Name returns the (trimmed) variable name.
func (p *PV) Name() string { return p.name }

// Form returns the requested metadata form.
func (p *PV) Form() dbr.Form { return p.form }

// Connected reports whether the handle is usable: the channel reports
// connected and the local connect post-processing has completed.
func (p *PV) Connected() bool {
	p.mu.Lock()
	ch := p.ch
	closed := p.closed
	p.mu.Unlock()
	if closed || ch == nil {
		return false
	}
	return ch.Connected() && p.connectSig.IsSet()
}

// connectionStateChanged is the hook registered with the provider. It
// runs on the provider's notification goroutine.
func (p *PV) connectionStateChanged(ch channel.Channel, state channel.ConnState) {
	connected := state == channel.Connected

	p.transition(ch, connected)

	if connected {
		// Rights were captured during the transition; notify observers
		// now that the lock is released.
		p.argsMu.Lock()
		read, write := p.args.ReadAccess, p.args.WriteAccess
		p.argsMu.Unlock()
		p.notifyAccess(read, write)
	}

	p.logger.Debug("pv connection state changed",
		slog.String("pv", p.name), slog.String("state", state.String()))
	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryState,
		StateChange: &pvlog.StateChangeEvent{
			NewState: state.String(),
		},
	})

	// User connection callbacks run outside the lock. Panics from them
	// propagate: the connect signal is already set, so no waiting
	// goroutine is left hanging.
	for _, cb := range p.connectionCallbacks() {
		cb(p.name, connected, p)
	}
}

// transition performs the locked part of a connection state change.
func (p *PV) transition(ch channel.Channel, connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		p.ch = ch
	}
	if p.closed {
		return
	}

	if connected {
		// The signal is set even if post-processing panics, so a
		// connecting caller still observes it.
		defer p.connectSig.Set()
		p.connectionEstablished(ch)
	} else {
		p.connected = false
	}
}

// connectionEstablished captures channel state and establishes the
// auto-monitor subscription. Caller holds p.mu.
func (p *PV) connectionEstablished(ch channel.Channel) {
	nativeType := ch.NativeType().Native()
	nativeCount := ch.NativeCount()
	full := dbr.Promote(nativeType, p.form)

	p.argsMu.Lock()
	p.args.HasType = true
	p.args.Type = nativeType
	p.args.TypeFull = full
	p.args.NativeCount = nativeCount
	p.args.ElementCount = nativeCount
	p.argsMu.Unlock()

	// Callbacks are notified by the caller once the lock is released.
	p.updateAccessArgs(ch.AccessRights())

	if p.monitorPolicy == MonitorAuto {
		mcount := nativeCount
		if p.defaultCount > 0 {
			mcount = p.defaultCount
		}
		if mcount < dbr.AutoMonitorMaxLength {
			p.monitorPolicy = MonitorOn
		} else {
			p.monitorPolicy = MonitorOff
		}
	}

	p.ensureMonitorLocked()
	p.connected = true
}

// ensureMonitorLocked establishes the auto-monitor subscription if the
// policy asks for one and none is live. Caller holds p.mu.
func (p *PV) ensureMonitorLocked() {
	if p.monitorPolicy != MonitorOn || p.sub != nil || p.ch == nil {
		return
	}

	p.argsMu.Lock()
	full := p.args.TypeFull
	p.argsMu.Unlock()

	sub, err := p.ch.Subscribe(full, p.defaultCount, p.monitorMask)
	if err != nil {
		p.logger.Warn("pv subscribe failed",
			slog.String("pv", p.name), slog.Any("error", err))
		return
	}
	sub.AddCallback(p.onMonitorUpdate)
	p.sub = sub
}

// onMonitorUpdate is the subscription hook: translate, merge, fan out.
func (p *PV) onMonitorUpdate(_ channel.Subscription, resp *channel.ReadResponse) {
	p.argsMu.Lock()
	full := p.args.TypeFull
	fallback := p.args.EnumStrs
	p.argsMu.Unlock()

	rec := translateResponse(full, resp, fallback)

	p.argsMu.Lock()
	p.args.apply(rec)
	p.argsMu.Unlock()

	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryMonitor,
		Monitor: &pvlog.MonitorEvent{
			DataType: resp.DataType,
			Count:    resp.DataCount,
		},
	})

	p.RunCallbacks()
}

// accessRightsChanged is the hook registered with the provider.
func (p *PV) accessRightsChanged(_ channel.Channel, rights dbr.AccessRights) {
	p.applyAccessRights(rights)
}

// applyAccessRights merges new rights into the cache and notifies
// access callbacks.
func (p *PV) applyAccessRights(rights dbr.AccessRights) {
	p.updateAccessArgs(rights)
	p.notifyAccess(rights.CanRead(), rights.CanWrite())
}

// updateAccessArgs merges new rights into the cache without notifying.
func (p *PV) updateAccessArgs(rights dbr.AccessRights) {
	p.argsMu.Lock()
	p.args.HasAccess = true
	p.args.ReadAccess = rights.CanRead()
	p.args.WriteAccess = rights.CanWrite()
	p.args.Access = rights.String()
	p.argsMu.Unlock()
}

// notifyAccess runs the access callbacks. A panicking observer is
// contained so it cannot break notification for the others or corrupt
// handle state.
func (p *PV) notifyAccess(read, write bool) {
	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryAccess,
		Access:    &pvlog.AccessEvent{Read: read, Write: write},
	})

	for _, cb := range p.accessCallbacksList() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Warn("pv access callback panicked",
						slog.String("pv", p.name), slog.Any("panic", r))
				}
			}()
			cb(read, write, p)
		}()
	}
}

func (p *PV) connectionCallbacks() []ConnectionCallback {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	return append([]ConnectionCallback(nil), p.connCBs...)
}

func (p *PV) accessCallbacksList() []AccessCallback {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	return append([]AccessCallback(nil), p.accessCBs...)
}

// AddConnectionCallback registers a connection-state observer. It is
// invoked on every state change.
func (p *PV) AddConnectionCallback(cb ConnectionCallback) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.connCBs = append(p.connCBs, cb)
}

// AddAccessCallback registers an access-rights observer.
func (p *PV) AddAccessCallback(cb AccessCallback) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.accessCBs = append(p.accessCBs, cb)
}

// WaitForConnection blocks until the handle is connected, the timeout
// elapses, or ctx is done. timeout 0 uses the handle's connection
// timeout.
func (p *PV) WaitForConnection(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.connectionTimeout
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	ch := p.ch
	if ch != nil && ch.Connected() && p.connectSig.IsSet() {
		p.mu.Unlock()
		return nil
	}
	p.connectSig.Clear()
	p.mu.Unlock()

	if err := ch.WaitForConnection(ctx, timeout); err != nil {
		return p.connectTimeout(timeout, err)
	}

	if !p.connectSig.Wait(ctx, timeout) || !p.Connected() {
		return p.connectTimeout(timeout, nil)
	}
	return nil
}

func (p *PV) connectTimeout(timeout time.Duration, cause error) error {
	err := &TimeoutError{Name: p.name, Op: "connect", Timeout: timeout, Err: cause}
	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryError,
		Error:     &pvlog.ErrorEvent{Op: "connect", Message: err.Error()},
	})
	return err
}

// Connect is an alias for WaitForConnection.
func (p *PV) Connect(ctx context.Context, timeout time.Duration) error {
	return p.WaitForConnection(ctx, timeout)
}

// ensureConnected is the connect-on-demand step wrapping all public
// accessors. timeout 0 uses the accessor default.
func (p *PV) ensureConnected(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultEnsureTimeout
	}
	if p.Connected() {
		return nil
	}
	return p.WaitForConnection(ctx, timeout)
}

// Reconnect is intentionally not implemented: the provider owns
// reconnection.
func (p *PV) Reconnect() error { return ErrNotImplemented }

// ForceConnect is intentionally not implemented.
func (p *PV) ForceConnect() error { return ErrNotImplemented }

// Disconnect closes the handle: cancels any live subscription and
// idles the channel. Terminal; later operations fail with ErrClosed.
func (p *PV) Disconnect() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.connected = false
	sub := p.sub
	p.sub = nil
	ch := p.ch
	p.mu.Unlock()

	if sub != nil {
		_ = sub.Cancel()
	}

	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryState,
		StateChange: &pvlog.StateChangeEvent{
			NewState: "CLOSED",
			Reason:   "disconnect requested",
		},
	})

	if ch != nil {
		return ch.GoIdle()
	}
	return nil
}

// Snapshot returns a deep copy of the current metadata cache.
func (p *PV) Snapshot() Metadata {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.Clone()
}

// hasMonitor reports whether a live subscription exists.
func (p *PV) hasMonitor() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub != nil
}

func (p *PV) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
