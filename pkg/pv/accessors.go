package pv

import (
	"context"
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
)

// The per-field accessors below fetch on demand: a value read if the
// cache has never seen data, then a time- or control-form fetch when
// the specific field is still missing.

func (p *PV) ensureValue(ctx context.Context) error {
	p.argsMu.Lock()
	have := p.args.RawValue != nil
	p.argsMu.Unlock()
	if have {
		return nil
	}
	_, err := p.Get(ctx, GetOptions{})
	return err
}

// timeField returns a cache snapshot, fetching time-form metadata first
// if present() reports the field missing.
func (p *PV) timeField(ctx context.Context, present func(*Metadata) bool) (Metadata, error) {
	if err := p.ensureValue(ctx); err != nil {
		return Metadata{}, err
	}
	snap := p.Snapshot()
	if present(&snap) || !p.Connected() {
		return snap, nil
	}
	if _, err := p.GetTimeVars(ctx); err != nil {
		return Metadata{}, err
	}
	return p.Snapshot(), nil
}

// ctrlField is timeField's control-form counterpart.
func (p *PV) ctrlField(ctx context.Context, present func(*Metadata) bool) (Metadata, error) {
	if err := p.ensureValue(ctx); err != nil {
		return Metadata{}, err
	}
	snap := p.Snapshot()
	if present(&snap) || !p.Connected() {
		return snap, nil
	}
	if _, err := p.GetCtrlVars(ctx); err != nil {
		return Metadata{}, err
	}
	return p.Snapshot(), nil
}

// Value returns the current coerced value.
func (p *PV) Value(ctx context.Context) (any, error) {
	return p.Get(ctx, GetOptions{})
}

// CharValue returns the current display text.
func (p *PV) CharValue(ctx context.Context) (dbr.Display, error) {
	if _, err := p.Get(ctx, GetOptions{AsString: true}); err != nil {
		return dbr.Unresolved, err
	}
	snap := p.Snapshot()
	return snap.CharValue, nil
}

// Status returns the last alarm status. Nil when unknown.
func (p *PV) Status(ctx context.Context) (*int16, error) {
	snap, err := p.timeField(ctx, func(m *Metadata) bool { return m.Status != nil })
	if err != nil {
		return nil, err
	}
	return snap.Status, nil
}

// Severity returns the last alarm severity. Nil when unknown.
func (p *PV) Severity(ctx context.Context) (*int16, error) {
	snap, err := p.timeField(ctx, func(m *Metadata) bool { return m.Severity != nil })
	if err != nil {
		return nil, err
	}
	return snap.Severity, nil
}

// Timestamp returns the last server timestamp. The zero time with
// ok=false means no time-form data has been seen.
func (p *PV) Timestamp(ctx context.Context) (time.Time, bool, error) {
	snap, err := p.timeField(ctx, func(m *Metadata) bool { return m.HasTimestamp })
	if err != nil {
		return time.Time{}, false, err
	}
	return snap.Timestamp, snap.HasTimestamp, nil
}

// Precision returns the display precision. Nil when unknown.
func (p *PV) Precision(ctx context.Context) (*int16, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.Precision != nil })
	if err != nil {
		return nil, err
	}
	return snap.Precision, nil
}

// Units returns the engineering units. Nil when unknown.
func (p *PV) Units(ctx context.Context) (*string, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.Units != nil })
	if err != nil {
		return nil, err
	}
	return snap.Units, nil
}

// EnumStrs returns the enum name list. Nil when unknown.
func (p *PV) EnumStrs(ctx context.Context) ([]string, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.EnumStrs != nil })
	if err != nil {
		return nil, err
	}
	return snap.EnumStrs, nil
}

// UpperDispLimit returns the upper display limit. Nil when unknown.
func (p *PV) UpperDispLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.UpperDispLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.UpperDispLimit, nil
}

// LowerDispLimit returns the lower display limit. Nil when unknown.
func (p *PV) LowerDispLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.LowerDispLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.LowerDispLimit, nil
}

// UpperAlarmLimit returns the upper alarm limit. Nil when unknown.
func (p *PV) UpperAlarmLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.UpperAlarmLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.UpperAlarmLimit, nil
}

// LowerAlarmLimit returns the lower alarm limit. Nil when unknown.
func (p *PV) LowerAlarmLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.LowerAlarmLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.LowerAlarmLimit, nil
}

// UpperWarningLimit returns the upper warning limit. Nil when unknown.
func (p *PV) UpperWarningLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.UpperWarningLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.UpperWarningLimit, nil
}

// LowerWarningLimit returns the lower warning limit. Nil when unknown.
func (p *PV) LowerWarningLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.LowerWarningLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.LowerWarningLimit, nil
}

// UpperCtrlLimit returns the upper control limit. Nil when unknown.
func (p *PV) UpperCtrlLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.UpperCtrlLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.UpperCtrlLimit, nil
}

// LowerCtrlLimit returns the lower control limit. Nil when unknown.
func (p *PV) LowerCtrlLimit(ctx context.Context) (*float64, error) {
	snap, err := p.ctrlField(ctx, func(m *Metadata) bool { return m.LowerCtrlLimit != nil })
	if err != nil {
		return nil, err
	}
	return snap.LowerCtrlLimit, nil
}

// Type returns the native field type. Valid once connected.
func (p *PV) Type() (dbr.FieldType, bool) {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.Type, p.args.HasType
}

// TypeFull returns the native type promoted to the handle's form.
func (p *PV) TypeFull() (dbr.FieldType, bool) {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.TypeFull, p.args.HasType
}

// ElementCount returns the effective element count. 0 until connected.
func (p *PV) ElementCount() int {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.ElementCount
}

// NativeElementCount returns the server-declared element count. 0
// until connected.
func (p *PV) NativeElementCount() int {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.NativeCount
}

// ReadAccess reports the cached read permission.
func (p *PV) ReadAccess() bool {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.ReadAccess
}

// WriteAccess reports the cached write permission.
func (p *PV) WriteAccess() bool {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.WriteAccess
}

// Access returns the conventional access string ("read/write" etc).
func (p *PV) Access() string {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.Access
}

// PutComplete reports whether the last completion-tracked put has
// finished.
func (p *PV) PutComplete() bool {
	p.argsMu.Lock()
	defer p.argsMu.Unlock()
	return p.args.PutComplete
}
