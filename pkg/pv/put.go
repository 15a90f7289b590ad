package pv

import (
	"context"
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pvlog"
)

// Put writes a value. The write access check happens before any
// network round-trip; without Wait, UseComplete or OnComplete the
// write is fire-and-forget.
func (p *PV) Put(ctx context.Context, value any, opts PutOptions) error {
	if err := p.ensureConnected(ctx, opts.Timeout); err != nil {
		return err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultPutTimeout
	}

	p.argsMu.Lock()
	writeAccess := p.args.WriteAccess
	typeFull := p.args.TypeFull
	enumStrs := p.args.EnumStrs
	p.argsMu.Unlock()

	if !writeAccess {
		return &AccessError{Name: p.name}
	}

	if _, ok := value.(string); ok && typeFull.Class() == dbr.ClassEnum && enumStrs == nil {
		// Enum names are needed to resolve the text; fetch them on
		// demand.
		md, err := p.GetCtrlVars(ctx)
		if err != nil {
			return err
		}
		enumStrs = md.EnumStrs
	}

	arr, err := p.normalizePutValue(value, typeFull, enumStrs)
	if err != nil {
		return err
	}

	wait := opts.Wait
	notify := opts.UseComplete || opts.OnComplete != nil || wait
	if !notify {
		wait = false
	}

	var onComplete func()
	if opts.UseComplete || opts.OnComplete != nil {
		useComplete := opts.UseComplete
		userDone := opts.OnComplete
		onComplete = func() {
			if useComplete {
				p.argsMu.Lock()
				p.args.PutComplete = true
				p.argsMu.Unlock()
			}
			if userDone != nil {
				userDone()
			}
		}
	}
	if opts.UseComplete {
		p.argsMu.Lock()
		p.args.PutComplete = false
		p.argsMu.Unlock()
	}

	start := time.Now()
	err = p.ch.Write(ctx, arr, channel.WriteOptions{
		Wait:       wait,
		Notify:     notify,
		OnComplete: onComplete,
		Timeout:    timeout,
	})
	if err != nil {
		werr := &TimeoutError{Name: p.name, Op: "put", Timeout: timeout, Err: err}
		p.eventLog.Log(pvlog.Event{
			Timestamp: time.Now(),
			SessionID: p.sessionID,
			PV:        p.name,
			Category:  pvlog.CategoryError,
			Error:     &pvlog.ErrorEvent{Op: "put", Message: werr.Error()},
		})
		return werr
	}

	p.eventLog.Log(pvlog.Event{
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		PV:        p.name,
		Category:  pvlog.CategoryOp,
		Op: &pvlog.OpEvent{
			Kind:     pvlog.OpPut,
			DataType: arr.ElemType(),
			Count:    arr.Len(),
			Duration: time.Since(start),
		},
	})
	return nil
}

// normalizePutValue converts a caller-supplied Go value into the typed
// array the channel layer writes.
func (p *PV) normalizePutValue(value any, typeFull dbr.FieldType, enumStrs []string) (dbr.Array, error) {
	class := typeFull.Class()

	if s, ok := value.(string); ok {
		switch class {
		case dbr.ClassEnum:
			if enumStrs == nil {
				return dbr.Array{}, valueErrorf("%s: enum strings unset, cannot put %q", p.name, s)
			}
			for i, name := range enumStrs {
				if name == s {
					return dbr.Enums([]uint16{uint16(i)}), nil
				}
			}
			return dbr.Array{}, valueErrorf("%s: %q is not one of %v", p.name, s, enumStrs)
		case dbr.ClassChar:
			// Text written to a char waveform goes as bytes with a
			// terminating NUL.
			b := append(dbr.EncodeText(s), 0)
			return dbr.Chars(b), nil
		default:
			return dbr.Strings([]string{s}), nil
		}
	}

	if ss, ok := value.([]string); ok {
		return dbr.Strings(ss), nil
	}
	if vs, ok := value.([]any); ok && len(vs) > 0 {
		if _, isText := vs[0].(string); isText {
			ss := make([]string, len(vs))
			for i, v := range vs {
				s, ok := v.(string)
				if !ok {
					return dbr.Array{}, valueErrorf("%s: mixed text and non-text put value", p.name)
				}
				ss[i] = s
			}
			return dbr.Strings(ss), nil
		}
	}

	arr, err := dbr.ArrayFrom(value)
	if err != nil {
		return dbr.Array{}, valueErrorf("%s: %v", p.name, err)
	}
	return arr, nil
}
