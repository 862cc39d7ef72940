package api

import (
	"context"
	"sofinlearn/internal/config"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ChangeFeed subscribes to the leaderboard change-notification stream. The
// feed carries no payload guarantees; every message means "something
// changed, refetch". A nil or empty feed URL disables the feed.
type ChangeFeed struct {
	url    string
	logger zerolog.Logger
}

func NewChangeFeed(cfg *config.Config, logger zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{url: cfg.LeaderboardFeedURL, logger: logger}
}

// Subscribe reads the feed until ctx is canceled, invoking notify once per
// received message. Connection drops are retried with a flat delay.
func (f *ChangeFeed) Subscribe(ctx context.Context, notify func()) {
	if f.url == "" {
		f.logger.Debug().Msg("no leaderboard feed URL configured, live updates disabled")
		return
	}

	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := f.readLoop(ctx, notify); err != nil {
				f.logger.Warn().Err(err).Msg("leaderboard feed disconnected, reconnecting")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()
}

func (f *ChangeFeed) readLoop(ctx context.Context, notify func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	f.logger.Info().Str("url", f.url).Msg("subscribed to leaderboard feed")
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		notify()
	}
}
