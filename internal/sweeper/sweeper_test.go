package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
	last  atomic.Int64
}

func (e *countingExpirer) Expire(_ context.Context, now time.Time) (int, error) {
	e.calls.Add(1)
	e.last.Store(now.UnixMilli())
	return 2, e.err
}

func TestSweep_PassesClock(t *testing.T) {
	exp := &countingExpirer{}
	s := New(exp, 0, nil)
	assert.Equal(t, DefaultInterval, s.interval)

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.Sweep(context.Background())

	assert.Equal(t, int32(1), exp.calls.Load())
	assert.Equal(t, fixed.UnixMilli(), exp.last.Load())
}

func TestSweep_ErrorIsLogged(t *testing.T) {
	exp := &countingExpirer{err: errors.New("db gone")}
	s := New(exp, time.Second, nil)
	assert.NotPanics(t, func() { s.Sweep(context.Background()) })
	assert.Equal(t, int32(1), exp.calls.Load())
}

func TestStartRunsImmediately(t *testing.T) {
	exp := &countingExpirer{}
	s := New(exp, time.Hour, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return exp.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
