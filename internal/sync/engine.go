package sync

import (
	"context"
	"fmt"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/domain"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Remote is the thin client over the shared leaderboard table.
type Remote interface {
	Upsert(ctx context.Context, entry domain.LeaderboardEntry) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// Feed delivers remote change notifications ("something changed, refetch").
type Feed interface {
	Subscribe(ctx context.Context, notify func())
}

// Engine propagates public score/cosmetics snapshots to the leaderboard as
// a one-way outbox. Publishes are deduplicated by content, coalesced per
// player inside a short batch window, retried with bounded exponential
// backoff, and dropped after the retry budget. A failed publish never
// touches the ledger; the ledger is authoritative and the leaderboard is a
// projection.
type Engine struct {
	remote Remote
	feed   Feed
	clk    clock.Clock
	logger zerolog.Logger

	mu         sync.Mutex
	dedup      map[string]time.Time
	outbox     map[string]pendingPublish // keyed by player name, last writer wins
	batchTimer clock.Timer

	topCache     []domain.LeaderboardEntry
	topCachedAt  time.Time
	refetchTimer clock.Timer

	fetchMu sync.Mutex
}

type pendingPublish struct {
	intentID string
	entry    domain.LeaderboardEntry
}

func NewEngine(remote Remote, feed Feed, clk clock.Clock, logger zerolog.Logger) *Engine {
	return &Engine{
		remote: remote,
		feed:   feed,
		clk:    clk,
		logger: logger,
		dedup:  make(map[string]time.Time),
		outbox: make(map[string]pendingPublish),
	}
}

// Start wires the change feed: bursts of remote change notifications
// collapse into one cache refresh per throttle window.
func (e *Engine) Start(ctx context.Context) {
	if e.feed != nil {
		e.feed.Subscribe(ctx, e.onRemoteChange)
	}
}

// Publish enqueues a snapshot for the player. A request identical in
// content to one seen within the dedup TTL is absorbed without new work.
// Distinct requests for the same player within the batch window coalesce;
// only the last one is sent.
func (e *Engine) Publish(playerName string, totalScore int, cosmetics domain.Cosmetics) {
	if playerName == "" {
		e.logger.Debug().Msg("publish skipped, no player name")
		return
	}

	entry := domain.LeaderboardEntry{
		PlayerName: playerName,
		TotalScore: totalScore,
		Badge:      orNone(cosmetics.Badge),
		Frame:      orNone(cosmetics.Frame),
		NameEffect: orNone(cosmetics.NameEffect),
	}
	key := fmt.Sprintf("%s-%d-%s-%s-%s", entry.PlayerName, entry.TotalScore, entry.Badge, entry.Frame, entry.NameEffect)

	e.mu.Lock()
	defer e.mu.Unlock()

	if at, ok := e.dedup[key]; ok && e.clk.Now().Sub(at) < constants.SyncCacheTTL {
		e.logger.Debug().Str("player", playerName).Msg("publish deduplicated")
		return
	}
	e.dedup[key] = e.clk.Now()
	e.pruneDedupLocked()

	intentID, err := gonanoid.New()
	if err != nil {
		intentID = playerName
	}
	e.outbox[playerName] = pendingPublish{intentID: intentID, entry: entry}

	if e.batchTimer != nil {
		e.batchTimer.Stop()
	}
	e.batchTimer = e.clk.AfterFunc(constants.SyncBatchDelay, func() {
		e.Flush(context.Background())
	})

	e.logger.Debug().
		Str("player", playerName).
		Str("intent_id", intentID).
		Int("total_score", totalScore).
		Msg("publish queued")
}

// Flush drains the outbox. The snapshot is taken atomically with respect
// to Publish: a publish arriving mid-flush lands in a fresh outbox and
// starts a new batch window. Sync failures are logged and swallowed.
func (e *Engine) Flush(ctx context.Context) {
	e.mu.Lock()
	if len(e.outbox) == 0 {
		if e.batchTimer != nil {
			e.batchTimer.Stop()
			e.batchTimer = nil
		}
		e.mu.Unlock()
		return
	}
	batch := e.outbox
	e.outbox = make(map[string]pendingPublish)
	if e.batchTimer != nil {
		e.batchTimer.Stop()
		e.batchTimer = nil
	}
	e.mu.Unlock()

	g := new(errgroup.Group)
	for _, p := range batch {
		p := p
		g.Go(func() error {
			e.performSync(ctx, p)
			return nil
		})
	}
	g.Wait()
}

func (e *Engine) performSync(ctx context.Context, p pendingPublish) {
	backoff := retry.WithMaxRetries(constants.SyncMaxRetries-1, retry.NewExponential(constants.SyncRetryBaseBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		upsertCtx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
		defer cancel()
		if err := e.remote.Upsert(upsertCtx, p.entry); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("player", p.entry.PlayerName).
			Str("intent_id", p.intentID).
			Msg("leaderboard sync failed after retries, dropping")
		return
	}

	e.logger.Debug().
		Str("player", p.entry.PlayerName).
		Str("intent_id", p.intentID).
		Msg("leaderboard sync done")
}

// TopEntries is a read-through cache over the remote top-N query.
func (e *Engine) TopEntries(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	e.mu.Lock()
	if e.topCache != nil && e.clk.Now().Sub(e.topCachedAt) < constants.LeaderboardCacheTTL {
		cached := append([]domain.LeaderboardEntry{}, e.topCache...)
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	// Serialize concurrent misses so the remote sees one read.
	e.fetchMu.Lock()
	defer e.fetchMu.Unlock()

	e.mu.Lock()
	if e.topCache != nil && e.clk.Now().Sub(e.topCachedAt) < constants.LeaderboardCacheTTL {
		cached := append([]domain.LeaderboardEntry{}, e.topCache...)
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()
	entries, err := e.remote.Top(fetchCtx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	e.mu.Lock()
	e.topCache = entries
	e.topCachedAt = e.clk.Now()
	e.mu.Unlock()

	return append([]domain.LeaderboardEntry{}, entries...), nil
}

// InvalidateTop drops the cached top-N so the next read goes remote.
func (e *Engine) InvalidateTop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topCache = nil
}

func (e *Engine) onRemoteChange() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refetchTimer != nil {
		// A refetch is already scheduled for this window.
		return
	}
	e.refetchTimer = e.clk.AfterFunc(constants.LeaderboardRealtimeDelay, func() {
		e.mu.Lock()
		e.refetchTimer = nil
		e.topCache = nil
		e.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
		defer cancel()
		if _, err := e.TopEntries(ctx, constants.LeaderboardTopLimit); err != nil {
			e.logger.Warn().Err(err).Msg("throttled leaderboard refetch failed")
		}
	})
}

func (e *Engine) pruneDedupLocked() {
	now := e.clk.Now()
	for key, at := range e.dedup {
		if now.Sub(at) >= constants.SyncCacheTTL {
			delete(e.dedup, key)
		}
	}
}

func orNone(v string) string {
	if v == "" {
		return domain.CosmeticNone
	}
	return v
}
