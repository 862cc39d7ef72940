package fx

import (
	"context"
	"database/sql"
	"sofinlearn/internal/api"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/config"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/database"
	"sofinlearn/internal/logger"
	"sofinlearn/internal/repository"
	"sofinlearn/internal/service"
	"sofinlearn/internal/storage"
	leadsync "sofinlearn/internal/sync"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideClock() clock.Clock {
	return clock.New()
}

func ProvideStore(db *sql.DB, log zerolog.Logger) storage.Store {
	return storage.NewSQLiteStore(db, log)
}

func ProvideSyncEngine(client *api.LeaderboardClient, feed *api.ChangeFeed, clk clock.Clock, log zerolog.Logger) *leadsync.Engine {
	return leadsync.NewEngine(client, feed, clk, log)
}

// Module wires the embeddable game core. The presentation shell supplies a
// domain.QuestionProvider for the content bank and invokes whatever
// services it drives.
var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideClock),
	// storage
	fx.Provide(ProvideStore),
	fx.Provide(storage.NewBatcher),
	fx.Provide(repository.NewProfileRepository),
	// leaderboard remote
	fx.Provide(api.NewLeaderboardClient),
	fx.Provide(api.NewChangeFeed),
	fx.Provide(ProvideSyncEngine),
	// svc
	fx.Provide(service.NewProgressionService),
	fx.Provide(service.NewSessionService),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle starts the leaderboard change feed and guarantees the
// write queue and publish outbox are drained on shutdown, the equivalent
// of the flush-on-exit signals a browser shell would hook.
func registerLifecycle(
	lc fx.Lifecycle,
	batcher *storage.Batcher,
	engine *leadsync.Engine,
	db *sql.DB,
	log zerolog.Logger,
) {
	feedCtx, cancelFeed := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			engine.Start(feedCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelFeed()

			flushCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := batcher.Flush(flushCtx); err != nil {
				log.Error().Err(err).Msg("failed to flush write queue on shutdown")
			}
			engine.Flush(flushCtx)

			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing database connection")
			}
			log.Info().Msg("game core stopped")
			return nil
		},
	})
}
