package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCounter struct {
	value int64
	fail  atomic.Bool
	calls atomic.Int32
}

func (c *stubCounter) GetUnreadCount(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	if c.fail.Load() {
		return 7, errors.New("database down")
	}
	return c.value, nil
}

func TestUnreadBadgeRefresh(t *testing.T) {
	counter := &stubCounter{value: 4}
	badge := NewUnreadBadge(counter, time.Minute)

	assert.Zero(t, badge.Count())
	assert.EqualValues(t, 4, badge.Refresh(context.Background()))
	assert.EqualValues(t, 4, badge.Count())

	counter.fail.Store(true)
	assert.Zero(t, badge.Refresh(context.Background()))
	assert.Zero(t, badge.Count())
}

func TestUnreadBadgeStartStop(t *testing.T) {
	counter := &stubCounter{value: 2}
	badge := NewUnreadBadge(counter, time.Hour)

	require.NoError(t, badge.Start())
	require.NoError(t, badge.Start())
	assert.EqualValues(t, 2, badge.Count())
	assert.EqualValues(t, 1, counter.calls.Load())

	select {
	case <-badge.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("badge did not stop")
	}
}
