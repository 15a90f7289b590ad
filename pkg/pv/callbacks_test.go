package pv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epics-tools/cago/pkg/pv"
)

func TestAddCallbackRejectsBadInput(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})
	ctx := context.Background()

	_, err := p.AddCallback(ctx, nil, pv.CallbackOptions{})
	assert.ErrorIs(t, err, pv.ErrValue)

	_, err = p.AddCallback(ctx, func(pv.Update) {}, pv.CallbackOptions{Index: 3})
	assert.ErrorIs(t, err, pv.ErrValue)
}

func TestCallbackIndicesNeverReused(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})
	ctx := context.Background()
	noop := func(pv.Update) {}

	i0, err := p.AddCallback(ctx, noop, pv.CallbackOptions{NoCtrlVars: true})
	require.NoError(t, err)
	i1, err := p.AddCallback(ctx, noop, pv.CallbackOptions{NoCtrlVars: true})
	require.NoError(t, err)
	assert.Equal(t, i0+1, i1)

	p.RemoveCallback(i0)
	i2, err := p.AddCallback(ctx, noop, pv.CallbackOptions{NoCtrlVars: true})
	require.NoError(t, err)
	assert.Greater(t, i2, i1)
	assert.Equal(t, 2, p.CallbackCount())

	// Removing an unknown index is a no-op.
	p.RemoveCallback(999)
	assert.Equal(t, 2, p.CallbackCount())

	p.ClearCallbacks()
	assert.Equal(t, 0, p.CallbackCount())
}

func TestRunCallbacksOrderAndSnapshot(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})
	ctx := context.Background()

	_, err := p.Get(ctx, pv.GetOptions{})
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int
	record := func(u pv.Update) {
		mu.Lock()
		order = append(order, u.Index)
		mu.Unlock()
	}

	for i := 0; i < 3; i++ {
		_, err := p.AddCallback(ctx, record, pv.CallbackOptions{NoCtrlVars: true})
		require.NoError(t, err)
	}

	mu.Lock()
	order = nil
	mu.Unlock()

	p.RunCallbacks()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestCallbackReceivesExtraAndHandle(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})
	ctx := context.Background()

	got := make(chan pv.Update, 1)
	_, err := p.AddCallback(ctx, func(u pv.Update) {
		select {
		case got <- u:
		default:
		}
	}, pv.CallbackOptions{
		RunNow: true,
		Extra:  map[string]any{"label": "front-end"},
	})
	require.NoError(t, err)

	select {
	case u := <-got:
		assert.Same(t, p, u.PV)
		assert.Equal(t, "front-end", u.Extra["label"])
		assert.Equal(t, "test:temperature", u.Meta.Name)
		assert.NotNil(t, u.Meta.Value)
	case <-time.After(time.Second):
		t.Fatal("run-now dispatch never happened")
	}
}

func TestCallbackFiresOnMonitorUpdate(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{Monitor: pv.MonitorOn})
	ctx := context.Background()

	values := make(chan any, 8)
	_, err := p.AddCallback(ctx, func(u pv.Update) {
		values <- u.Meta.Value
	}, pv.CallbackOptions{NoCtrlVars: true})
	require.NoError(t, err)

	require.NoError(t, prov.SetValue("test:temperature", 33.0))

	deadline := time.After(time.Second)
	for {
		select {
		case v := <-values:
			if v == 33.0 {
				return
			}
		case <-deadline:
			t.Fatal("callback never observed the new value")
		}
	}
}

func TestEagerCtrlVarsFetch(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})
	ctx := context.Background()

	_, err := p.AddCallback(ctx, func(pv.Update) {}, pv.CallbackOptions{})
	require.NoError(t, err)

	// The registration pre-fetched control metadata.
	snap := p.Snapshot()
	require.NotNil(t, snap.Units)
	assert.Equal(t, "degC", *snap.Units)
}

func TestOptionsCallbackIsIndexZero(t *testing.T) {
	prov := newTestProvider(t)

	got := make(chan pv.Update, 8)
	p, err := pv.New(prov, "test:temperature", pv.Options{
		Monitor:  pv.MonitorOn,
		Callback: func(u pv.Update) { got <- u },
	})
	require.NoError(t, err)
	defer func() { _ = p.Disconnect() }()
	require.NoError(t, p.WaitForConnection(context.Background(), time.Second))

	select {
	case u := <-got:
		assert.Equal(t, 0, u.Index)
	case <-time.After(time.Second):
		t.Fatal("constructor callback never fired")
	}
}
