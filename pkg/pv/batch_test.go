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

func TestGetMany(t *testing.T) {
	prov := newTestProvider(t)

	got, err := pv.GetMany(context.Background(), prov,
		[]string{"test:temperature", "test:waveform", "test:mode"},
		pv.GetManyOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 21.5, got[0])
	assert.Equal(t, []float64{1, 2, 3, 4}, got[1])
	assert.Equal(t, uint16(1), got[2])
}

func TestGetManyAsString(t *testing.T) {
	prov := newTestProvider(t)

	got, err := pv.GetMany(context.Background(), prov,
		[]string{"test:mode"},
		pv.GetManyOptions{AsString: true, Timeout: time.Second})
	require.NoError(t, err)
	require.Len(t, got, 1)
	// Batch reads use the control form, so names resolve in one pass.
	assert.Equal(t, "On", got[0])
}

func TestGetManyMissingYieldsNil(t *testing.T) {
	prov := newTestProvider(t)

	got, err := pv.GetMany(context.Background(), prov,
		[]string{"test:temperature", "test:missing"},
		pv.GetManyOptions{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 21.5, got[0])
	assert.Nil(t, got[1])
}

func TestGetManyRaises(t *testing.T) {
	prov := newTestProvider(t)

	_, err := pv.GetMany(context.Background(), prov,
		[]string{"test:missing", "test:temperature"},
		pv.GetManyOptions{Timeout: 100 * time.Millisecond, Raises: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, pv.ErrTimeout)
	assert.Contains(t, err.Error(), "test:missing")
}

func TestPutMany(t *testing.T) {
	prov := newTestProvider(t)

	statuses, err := pv.PutMany(context.Background(), prov,
		[]string{"test:temperature", "test:waveform"},
		[]any{18.5, []float64{5, 6, 7, 8}},
		pv.PutManyOptions{Wait: pv.WaitEach, ConnectionTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, statuses)

	got, err := pv.GetMany(context.Background(), prov,
		[]string{"test:temperature", "test:waveform"},
		pv.GetManyOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 18.5, got[0])
	assert.Equal(t, []float64{5, 6, 7, 8}, got[1])
}

func TestPutManyLengthMismatch(t *testing.T) {
	prov := newTestProvider(t)

	_, err := pv.PutMany(context.Background(), prov,
		[]string{"test:temperature"}, []any{1.0, 2.0}, pv.PutManyOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pv.ErrValue)

	// Nothing was written.
	got, gerr := pv.Get(context.Background(), prov, "test:temperature", pv.GetOptions{})
	require.NoError(t, gerr)
	assert.Equal(t, 21.5, got)
}

func TestPutManyFailuresAreMinusOne(t *testing.T) {
	prov := newTestProvider(t)

	statuses, err := pv.PutMany(context.Background(), prov,
		[]string{"test:temperature", "test:missing", "test:readonly"},
		[]any{20.0, 1.0, int32(9)},
		pv.PutManyOptions{Wait: pv.WaitEach, ConnectionTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1, -1}, statuses)
}

func TestPutManyWaitAll(t *testing.T) {
	prov := newTestProvider(t)
	require.NoError(t, prov.Add("test:slow1", sim.Config{
		Type:            dbr.Double,
		Value:           0.0,
		ProcessingDelay: 20 * time.Millisecond,
	}))
	require.NoError(t, prov.Add("test:slow2", sim.Config{
		Type:            dbr.Double,
		Value:           0.0,
		ProcessingDelay: 40 * time.Millisecond,
	}))

	statuses, err := pv.PutMany(context.Background(), prov,
		[]string{"test:slow1", "test:slow2"},
		[]any{1.5, 2.5},
		pv.PutManyOptions{
			Wait:              pv.WaitAll,
			ConnectionTimeout: time.Second,
			PutTimeout:        time.Second,
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, statuses)

	got, err := pv.GetMany(context.Background(), prov,
		[]string{"test:slow1", "test:slow2"},
		pv.GetManyOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 1.5, got[0])
	assert.Equal(t, 2.5, got[1])
}

func TestPutManyWaitAllTimeout(t *testing.T) {
	prov := newTestProvider(t)
	require.NoError(t, prov.Add("test:stuck", sim.Config{
		Type:            dbr.Double,
		Value:           0.0,
		ProcessingDelay: 10 * time.Second,
	}))

	statuses, err := pv.PutMany(context.Background(), prov,
		[]string{"test:temperature", "test:stuck"},
		[]any{19.0, 1.0},
		pv.PutManyOptions{
			Wait:              pv.WaitAll,
			ConnectionTimeout: time.Second,
			PutTimeout:        300 * time.Millisecond,
		})
	require.NoError(t, err)
	// The write that never completes becomes a failure without
	// disturbing the rest of the batch.
	assert.Equal(t, []int{1, -1}, statuses)
}
