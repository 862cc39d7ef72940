package storage

import (
	"context"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/constants"
	"sync"

	"github.com/rs/zerolog"
)

// Batcher coalesces rapid writes to the same keys. A queued write is
// flushed after a short delay or on process shutdown, whichever comes
// first; last value per key wins. An immediate write flushes anything
// pending first and then writes through synchronously.
//
// Reads bypass the queue entirely: a Get right after a queued Set can
// return the previous persisted value. Callers that cannot tolerate that
// use immediate writes.
type Batcher struct {
	store  Store
	clock  clock.Clock
	logger zerolog.Logger

	mu    sync.Mutex
	queue map[string]string
	timer clock.Timer
}

func NewBatcher(store Store, clk clock.Clock, logger zerolog.Logger) *Batcher {
	return &Batcher{
		store:  store,
		clock:  clk,
		logger: logger,
		queue:  make(map[string]string),
	}
}

func (b *Batcher) Set(ctx context.Context, key, value string, immediate bool) error {
	if immediate {
		if err := b.Flush(ctx); err != nil {
			b.logger.Warn().Err(err).Msg("failed to flush pending writes before immediate write")
		}
		return b.store.Put(ctx, key, value)
	}

	b.mu.Lock()
	b.queue[key] = value
	b.scheduleLocked()
	b.mu.Unlock()
	return nil
}

func (b *Batcher) Get(ctx context.Context, key string) (string, bool, error) {
	return b.store.Get(ctx, key)
}

// Delete flushes pending writes first so a queued Set for the same key
// cannot be resurrected by a later flush.
func (b *Batcher) Delete(ctx context.Context, key string) error {
	if err := b.Flush(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("failed to flush pending writes before delete")
	}
	b.mu.Lock()
	delete(b.queue, key)
	b.mu.Unlock()
	return b.store.Delete(ctx, key)
}

// Flush writes all queued values. The queue is snapshotted and cleared
// atomically with respect to Set, so a write arriving mid-flush lands in
// a fresh queue and is not lost.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.queue) == 0 {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		b.mu.Unlock()
		return nil
	}
	pending := b.queue
	b.queue = make(map[string]string)
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	var lastErr error
	for key, value := range pending {
		if err := b.store.Put(ctx, key, value); err != nil {
			b.logger.Error().Err(err).Str("key", key).Msg("failed to flush document")
			lastErr = err
		}
	}
	return lastErr
}

func (b *Batcher) scheduleLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = b.clock.AfterFunc(constants.StorageBatchDelay, func() {
		if err := b.Flush(context.Background()); err != nil {
			b.logger.Error().Err(err).Msg("scheduled flush failed")
		}
	})
}
