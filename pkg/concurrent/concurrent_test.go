package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arbor/pkg/sequence"
)

func TestMapErrPreservesOrder(t *testing.T) {
	out, err := MapErr(context.Background(), sequence.Count(0, 50), 4, func(_ context.Context, v uint64) (uint64, error) {
		time.Sleep(time.Duration(50-v) * time.Microsecond)
		return v * v, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 50)
	for i, v := range out {
		assert.Equal(t, uint64(i*i), v)
	}
}

func TestMapErrLimitsWorkers(t *testing.T) {
	var running, peak int32
	_, err := MapErr(context.Background(), sequence.Count(0, 20), 3, func(_ context.Context, v uint64) (uint64, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
		return v, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestEachReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Each(context.Background(), sequence.Count(0, 10), 2, func(_ context.Context, v uint64) error {
		if v == 4 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
