package pv

import (
	"context"
	"log/slog"
	"sort"
)

// AddCallback registers fn for value updates and returns its index.
// Indices are monotonically assigned and never reused, so a removal
// can never detach a later registration.
func (p *PV) AddCallback(ctx context.Context, fn Callback, opts CallbackOptions) (int, error) {
	if fn == nil {
		return 0, valueErrorf("%s: nil callback", p.name)
	}
	if opts.Index != 0 {
		return 0, valueErrorf("%s: callback indices are assigned internally", p.name)
	}

	p.cbMu.Lock()
	index := p.nextIndex
	p.nextIndex++
	p.callbacks[index] = callbackEntry{fn: fn, extra: opts.Extra}
	p.cbMu.Unlock()

	if p.Connected() {
		p.mu.Lock()
		if p.monitorPolicy != MonitorOff {
			p.monitorPolicy = MonitorOn
			p.ensureMonitorLocked()
		}
		p.mu.Unlock()

		if !opts.NoCtrlVars {
			if _, err := p.GetCtrlVars(ctx); err != nil {
				p.logger.Debug("pv eager ctrlvars fetch failed",
					slog.String("pv", p.name), slog.Any("error", err))
			}
		}
	}

	if opts.RunNow {
		if _, err := p.Get(ctx, GetOptions{AsString: true}); err != nil {
			return index, err
		}
		if p.Connected() {
			p.runCallback(index)
		}
	}

	return index, nil
}

// RemoveCallback unregisters a callback by index. Unknown indices are
// a no-op.
func (p *PV) RemoveCallback(index int) {
	p.cbMu.Lock()
	delete(p.callbacks, index)
	p.cbMu.Unlock()
}

// ClearCallbacks drops every registered value callback.
func (p *PV) ClearCallbacks() {
	p.cbMu.Lock()
	p.callbacks = make(map[int]callbackEntry)
	p.cbMu.Unlock()
}

// CallbackCount returns the number of registered value callbacks.
func (p *PV) CallbackCount() int {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	return len(p.callbacks)
}

// RunCallbacks dispatches every registered callback in ascending index
// order, each with its own cache snapshot.
func (p *PV) RunCallbacks() {
	p.cbMu.Lock()
	indices := make([]int, 0, len(p.callbacks))
	for idx := range p.callbacks {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	entries := make([]callbackEntry, len(indices))
	for i, idx := range indices {
		entries[i] = p.callbacks[idx]
	}
	p.cbMu.Unlock()

	for i, idx := range indices {
		p.dispatch(idx, entries[i])
	}
}

// runCallback dispatches a single callback by index, if registered.
func (p *PV) runCallback(index int) {
	p.cbMu.Lock()
	entry, ok := p.callbacks[index]
	p.cbMu.Unlock()
	if !ok {
		return
	}
	p.dispatch(index, entry)
}

func (p *PV) dispatch(index int, entry callbackEntry) {
	entry.fn(Update{
		Meta:  p.Snapshot(),
		Extra: entry.extra,
		Index: index,
		PV:    p,
	})
}
