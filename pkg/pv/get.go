package pv

import (
	"context"
	"math"
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pvlog"
)

// readTimeout derives the default read timeout from the element count:
// one second, scaled logarithmically for large arrays.
func readTimeout(count int) time.Duration {
	if count <= 0 {
		return time.Second
	}
	secs := 1.0 + math.Log10(math.Max(1, float64(count)))
	return time.Duration(secs * float64(time.Second))
}

// Get reads the current value. Served from the monitor cache when one
// is live and sufficient, otherwise from the network.
func (p *PV) Get(ctx context.Context, opts GetOptions) (any, error) {
	md, err := p.GetWithMetadata(ctx, opts)
	if err != nil {
		return nil, err
	}
	return md.Value, nil
}

// GetWithMetadata reads the current value together with whatever
// metadata the requested form carries, merged over the cache.
func (p *PV) GetWithMetadata(ctx context.Context, opts GetOptions) (*Metadata, error) {
	if err := p.ensureConnected(ctx, opts.Timeout); err != nil {
		return nil, err
	}

	form := p.form
	if opts.Form != nil {
		form = *opts.Form
	}
	count := opts.Count
	if count == 0 {
		count = p.defaultCount
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = readTimeout(count)
	}

	useMonitor := !opts.NoMonitor

	var md Metadata
	switch {
	case opts.WithCtrlVars && form != dbr.FormControl && form != dbr.FormNative:
		// Fetch control metadata first, then overlay the requested
		// form's read on top of it. The monitor serves the handle's
		// form, not the control form, so this fetch must hit the
		// network even when a monitor is live.
		ctrl := dbr.FormControl
		base, err := p.GetWithMetadata(ctx, GetOptions{
			Count:     opts.Count,
			AsString:  opts.AsString,
			AsList:    opts.AsList,
			NoMonitor: true,
			Timeout:   timeout,
			Form:      &ctrl,
		})
		if err != nil {
			return nil, err
		}
		md = *base
	case useMonitor:
		md = p.Snapshot()
	default:
		md = Metadata{Name: p.name}
	}

	p.argsMu.Lock()
	nativeType := p.args.Type
	nativeCount := p.args.ElementCount
	typeFull := p.args.TypeFull
	cachedRaw := p.args.RawValue
	p.argsMu.Unlock()

	dt := dbr.Promote(nativeType, form)
	if !opts.AsString && dt.Class() == dbr.ClassChar {
		// Char data read as numbers goes over the wire as the int
		// equivalent, which the monitor cache cannot serve.
		dt = dt.IntEquivalent()
		useMonitor = false
	}

	needRead := !useMonitor ||
		!p.hasMonitor() ||
		cachedRaw == nil ||
		(count > 0 && cachedRaw != nil && count > cachedRaw.Len())
	if needRead {
		rec, err := p.readAndUpdate(ctx, "get", dt, typeFull, count, timeout)
		if err != nil {
			return nil, err
		}
		md.apply(rec)
	}

	var enumNames []string
	if opts.AsString && typeFull.Class() == dbr.ClassEnum {
		names, err := p.EnumStrs(ctx)
		if err != nil {
			return nil, err
		}
		enumNames = names
	}

	var raw dbr.Array
	if md.RawValue != nil {
		raw = *md.RawValue
	}
	value, err := coerceValue(raw, md.CharValue, typeFull, nativeCount, count,
		enumNames, opts.AsString, opts.AsList)
	if err != nil {
		return nil, err
	}
	md.Value = value
	return &md, nil
}

// readAndUpdate performs one network read as dataType, translates the
// response against fullType, and merges it into the cache.
func (p *PV) readAndUpdate(ctx context.Context, op string, dataType, fullType dbr.FieldType,
	count int, timeout time.Duration) (*record, error) {

	start := time.Now()
	resp, err := p.ch.Read(ctx, dataType, count, timeout)
	if err != nil {
		werr := &TimeoutError{Name: p.name, Op: op, Timeout: timeout, Err: err}
		p.eventLog.Log(pvlog.Event{
			Timestamp: time.Now(),
			SessionID: p.sessionID,
			PV:        p.name,
			Category:  pvlog.CategoryError,
			Error:     &pvlog.ErrorEvent{Op: op, Message: werr.Error()},
		})
		return nil, werr
	}

	p.argsMu.Lock()
	fallback := p.args.EnumStrs
	p.argsMu.Unlock()

	rec := translateResponse(fullType, resp, fallback)

	p.argsMu.Lock()
	p.args.apply(rec)
	p.argsMu.Unlock()

	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryOp,
		Op: &pvlog.OpEvent{
			Kind:     pvlog.OpGet,
			DataType: dataType,
			Count:    resp.DataCount,
			Duration: time.Since(start),
		},
	})

	return rec, nil
}

// GetCtrlVars fetches the control-form metadata (limits, precision,
// units, enum names) and refreshes access rights. The returned record
// holds only what this fetch carried.
func (p *PV) GetCtrlVars(ctx context.Context) (*Metadata, error) {
	if err := p.ensureConnected(ctx, 0); err != nil {
		return nil, err
	}

	p.argsMu.Lock()
	nativeType := p.args.Type
	p.argsMu.Unlock()

	dt := dbr.Promote(nativeType, dbr.FormControl)
	rec, err := p.readAndUpdate(ctx, "get_ctrlvars", dt, dt, 0, defaultEnsureTimeout)
	if err != nil {
		return nil, err
	}
	if err := p.ForceReadAccessRights(ctx); err != nil {
		return nil, err
	}

	md := Metadata{Name: p.name}
	md.apply(rec)
	return &md, nil
}

// GetTimeVars fetches the time-form metadata (status, severity,
// timestamp). The returned record holds only what this fetch carried.
func (p *PV) GetTimeVars(ctx context.Context) (*Metadata, error) {
	if err := p.ensureConnected(ctx, 0); err != nil {
		return nil, err
	}

	p.argsMu.Lock()
	nativeType := p.args.Type
	p.argsMu.Unlock()

	dt := dbr.Promote(nativeType, dbr.FormTime)
	rec, err := p.readAndUpdate(ctx, "get_timevars", dt, dt, 0, defaultEnsureTimeout)
	if err != nil {
		return nil, err
	}

	md := Metadata{Name: p.name}
	md.apply(rec)
	return &md, nil
}

// ForceReadAccessRights re-reads the channel's access rights into the
// cache and notifies access callbacks.
func (p *PV) ForceReadAccessRights(ctx context.Context) error {
	if err := p.ensureConnected(ctx, 0); err != nil {
		return err
	}
	p.applyAccessRights(p.ch.AccessRights())
	return nil
}
