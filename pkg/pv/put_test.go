package pv_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pv"
	"github.com/epics-tools/cago/pkg/sim"
)

func TestPutScalar(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})
	ctx := context.Background()

	require.NoError(t, p.Put(ctx, 23.25, pv.PutOptions{Wait: true}))

	got, err := p.Get(ctx, pv.GetOptions{NoMonitor: true})
	require.NoError(t, err)
	assert.Equal(t, 23.25, got)
}

func TestPutArray(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:waveform", pv.Options{})
	ctx := context.Background()

	require.NoError(t, p.Put(ctx, []float64{9, 8, 7, 6}, pv.PutOptions{Wait: true}))

	got, err := p.Get(ctx, pv.GetOptions{NoMonitor: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 8, 7, 6}, got)
}

func TestPutEnumByName(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:mode", pv.Options{})
	ctx := context.Background()

	// The name list must be known before a text put can resolve.
	_, err := p.EnumStrs(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Put(ctx, "Fault", pv.PutOptions{Wait: true}))

	got, err := p.Get(ctx, pv.GetOptions{NoMonitor: true})
	require.NoError(t, err)
	assert.Equal(t, uint16(2), got)

	// Unknown names are a value error, raised before any write.
	err = p.Put(ctx, "Broken", pv.PutOptions{Wait: true})
	assert.ErrorIs(t, err, pv.ErrValue)
}

func TestPutStringToCharWaveform(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:message", pv.Options{})
	ctx := context.Background()

	require.NoError(t, p.Put(ctx, "bye", pv.PutOptions{Wait: true}))

	got, err := p.Get(ctx, pv.GetOptions{AsString: true, NoMonitor: true})
	require.NoError(t, err)
	assert.Equal(t, "bye", got)
}

func TestPutWithoutWriteAccess(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:readonly", pv.Options{})

	err := p.Put(context.Background(), int32(9), pv.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pv.ErrNoAccess)

	var aerr *pv.AccessError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "test:readonly", aerr.Name)
}

func TestPutUseComplete(t *testing.T) {
	prov := newTestProvider(t)
	require.NoError(t, prov.Add("test:slow", sim.Config{
		Type:            dbr.Double,
		Value:           0.0,
		ProcessingDelay: 20 * time.Millisecond,
	}))
	p := newTestPV(t, prov, "test:slow", pv.Options{})
	ctx := context.Background()

	require.NoError(t, p.Put(ctx, 1.0, pv.PutOptions{UseComplete: true}))
	assert.False(t, p.PutComplete())

	require.Eventually(t, p.PutComplete, time.Second, 5*time.Millisecond)
}

func TestPutOnComplete(t *testing.T) {
	prov := newTestProvider(t)
	p := newTestPV(t, prov, "test:temperature", pv.Options{})

	done := make(chan struct{})
	err := p.Put(context.Background(), 30.0, pv.PutOptions{
		OnComplete: func() { close(done) },
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestOneShotGetAndPut(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	got, err := pv.Get(ctx, prov, "test:temperature", pv.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 21.5, got)

	require.NoError(t, pv.Put(ctx, prov, "test:temperature", 19.0, pv.PutOptions{Wait: true}))

	got, err = pv.Get(ctx, prov, "test:temperature", pv.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 19.0, got)

	named, err := pv.Get(ctx, prov, "test:mode", pv.GetOptions{AsString: true})
	require.NoError(t, err)
	assert.Equal(t, "On", named)
}
