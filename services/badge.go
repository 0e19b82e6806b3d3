package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UnreadCounter is the source of the badge number.
type UnreadCounter interface {
	GetUnreadCount(ctx context.Context) (int64, error)
}

// UnreadBadge keeps the unread message count fresh on a fixed interval. Count never
// blocks and reads 0 until the first refresh or after a failed one.
type UnreadBadge struct {
	counter   UnreadCounter
	interval  time.Duration
	timeout   time.Duration
	scheduler *cron.Cron
	count     atomic.Int64
	mu        sync.Mutex
	started   bool
	scheduled bool
	logger    zerolog.Logger
}

func NewUnreadBadge(counter UnreadCounter, interval time.Duration) *UnreadBadge {
	if interval < time.Second {
		interval = time.Second
	}
	return &UnreadBadge{
		counter:   counter,
		interval:  interval,
		timeout:   10 * time.Second,
		scheduler: cron.New(),
		logger:    log.With().Str("service", "unreadBadge").Logger(),
	}
}

// Start refreshes once and then on every interval. Calling it twice is a no-op.
func (b *UnreadBadge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	if !b.scheduled {
		spec := fmt.Sprintf("@every %s", b.interval)
		if _, err := b.scheduler.AddFunc(spec, b.tick); err != nil {
			return fmt.Errorf("failed to schedule unread badge: %w", err)
		}
		b.scheduled = true
	}
	b.tick()
	b.scheduler.Start()
	b.started = true
	b.logger.Info().Dur("interval", b.interval).Msg("unread badge polling started")
	return nil
}

// Stop halts the schedule. The returned context is done once a running refresh
// has finished.
func (b *UnreadBadge) Stop() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	return b.scheduler.Stop()
}

// Refresh reads the counter now and stores the result.
func (b *UnreadBadge) Refresh(ctx context.Context) int64 {
	count, err := b.counter.GetUnreadCount(ctx)
	count = OrDefault(count, err, 0, b.logger, "refresh unread badge")
	b.count.Store(count)
	return count
}

func (b *UnreadBadge) Count() int64 {
	return b.count.Load()
}

func (b *UnreadBadge) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	b.Refresh(ctx)
}
