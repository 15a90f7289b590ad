package pv

import (
	"context"
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

// GetManyOptions shapes a batch read.
type GetManyOptions struct {
	// AsString requests display-form values.
	AsString bool

	// Count explicitly limits array data per variable.
	Count int

	// AsList converts array results to generic []any.
	AsList bool

	// Timeout bounds the whole batch. 0 means 5s.
	Timeout time.Duration

	// Raises turns unconnected variables into a TimeoutError instead of
	// nil slots.
	Raises bool
}

// GetMany reads many variables concurrently with one shared deadline.
// Each channel is read as soon as it connects; variables that never
// connect yield nil slots (or, with Raises, a TimeoutError naming the
// first of them).
func GetMany(ctx context.Context, provider channel.Provider, names []string, opts GetManyOptions) ([]any, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Connection events funnel into one channel so the wait is a
	// select, not a poll. The buffer holds one event per requested
	// variable plus slack for repeated transitions.
	events := make(chan channel.Channel, 2*len(names)+1)
	connCB := func(ch channel.Channel, state channel.ConnState) {
		if state == channel.Connected {
			select {
			case events <- ch:
			default:
			}
		}
	}

	chs, err := provider.PVs(names, connCB, nil)
	if err != nil {
		return nil, err
	}

	pending := make(map[channel.Channel]int, len(chs))
	for i, ch := range chs {
		pending[ch] = i
	}

	responses := make([]*channel.ReadResponse, len(names))
	readConnected := func(ch channel.Channel) {
		idx, ok := pending[ch]
		if !ok {
			return
		}
		delete(pending, ch)
		dt := dbr.Promote(ch.NativeType().Native(), dbr.FormControl)
		resp, rerr := ch.Read(ctx, dt, opts.Count, timeout)
		if rerr == nil {
			responses[idx] = resp
		}
	}

	// Channels may have connected before we got here.
	for _, ch := range chs {
		if ch.Connected() {
			readConnected(ch)
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
wait:
	for len(pending) > 0 {
		select {
		case ch := <-events:
			readConnected(ch)
		case <-deadline.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	if opts.Raises && len(pending) > 0 {
		// Name the first unconnected variable in input order.
		first := -1
		for _, idx := range pending {
			if first < 0 || idx < first {
				first = idx
			}
		}
		return nil, &TimeoutError{Name: names[first], Op: "connect", Timeout: timeout}
	}

	results := make([]any, len(names))
	for i := range names {
		resp := responses[i]
		if resp == nil {
			continue
		}
		full := dbr.Promote(chs[i].NativeType().Native(), dbr.FormControl)
		rec := translateResponse(full, resp, nil)
		value, cerr := coerceValue(rec.Raw, rec.Char, chs[i].NativeType().Native(),
			chs[i].NativeCount(), opts.Count, rec.EnumStrs, opts.AsString, opts.AsList)
		if cerr != nil {
			return nil, cerr
		}
		results[i] = value
	}
	return results, nil
}

// WaitMode controls how a batch write blocks.
type WaitMode uint8

const (
	// WaitNone issues fire-and-forget writes.
	WaitNone WaitMode = iota
	// WaitEach blocks on every write in turn.
	WaitEach
	// WaitAll issues completion-tracked writes, then waits for all of
	// them together.
	WaitAll
)

// String returns the mode name.
func (m WaitMode) String() string {
	switch m {
	case WaitNone:
		return "none"
	case WaitEach:
		return "each"
	case WaitAll:
		return "all"
	default:
		return "UNKNOWN"
	}
}

// PutManyOptions shapes a batch write.
type PutManyOptions struct {
	// Wait is the blocking mode.
	Wait WaitMode

	// ConnectionTimeout bounds each variable's connect. 0 means the
	// handle default.
	ConnectionTimeout time.Duration

	// PutTimeout bounds the writes (the shared wait, for WaitAll). 0
	// means 60s.
	PutTimeout time.Duration
}

// PutMany writes many variables, returning 1 for each success and -1
// for each failure. A length mismatch fails the whole batch before any
// write is issued.
func PutMany(ctx context.Context, provider channel.Provider, names []string, values []any, opts PutManyOptions) ([]int, error) {
	if len(names) != len(values) {
		return nil, valueErrorf("put batch: %d names but %d values", len(names), len(values))
	}
	putTimeout := opts.PutTimeout
	if putTimeout <= 0 {
		putTimeout = 60 * time.Second
	}

	waitAll := opts.Wait == WaitAll
	done := make(chan int, len(names))

	pvs := make([]*PV, len(names))
	out := make([]int, len(names))
	issued := 0
	for i := range names {
		out[i] = -1
		p, err := New(provider, names[i], Options{
			Monitor:           MonitorOff,
			ConnectionTimeout: opts.ConnectionTimeout,
		})
		if err != nil {
			continue
		}
		pvs[i] = p
		if err := p.WaitForConnection(ctx, opts.ConnectionTimeout); err != nil {
			continue
		}

		popts := PutOptions{Timeout: putTimeout}
		switch opts.Wait {
		case WaitEach:
			popts.Wait = true
		case WaitAll:
			idx := i
			popts.UseComplete = true
			popts.OnComplete = func() { done <- idx }
		}
		if err := p.Put(ctx, values[i], popts); err != nil {
			continue
		}
		out[i] = 1
		issued++
	}

	if waitAll {
		completed := make([]bool, len(names))
		deadline := time.NewTimer(putTimeout)
		defer deadline.Stop()
		remaining := issued
	wait:
		for remaining > 0 {
			select {
			case idx := <-done:
				if !completed[idx] {
					completed[idx] = true
					remaining--
				}
			case <-deadline.C:
				break wait
			case <-ctx.Done():
				break wait
			}
		}
		for i := range names {
			if out[i] != 1 {
				continue
			}
			if !completed[i] || pvs[i] == nil || !pvs[i].Connected() {
				out[i] = -1
			}
		}
	}

	for _, p := range pvs {
		if p != nil {
			_ = p.Disconnect()
		}
	}
	return out, nil
}

// Get is a one-shot convenience: connect, read, disconnect.
func Get(ctx context.Context, provider channel.Provider, name string, opts GetOptions) (any, error) {
	start := time.Now()
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	p, err := NewConnected(ctx, provider, name, Options{}, timeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = p.Disconnect() }()

	if opts.AsString {
		if _, err := p.GetCtrlVars(ctx); err != nil {
			return nil, err
		}
	}

	remaining := timeout - time.Since(start)
	if remaining <= 0 {
		return nil, &TimeoutError{Name: name, Op: "get", Timeout: timeout}
	}
	opts.Timeout = remaining
	opts.NoMonitor = true
	return p.Get(ctx, opts)
}

// Put is a one-shot convenience: connect, write, disconnect.
func Put(ctx context.Context, provider channel.Provider, name string, value any, opts PutOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p, err := NewConnected(ctx, provider, name, Options{}, timeout)
	if err != nil {
		return err
	}
	defer func() { _ = p.Disconnect() }()
	return p.Put(ctx, value, opts)
}
