package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sofinlearn/internal/config"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/domain"
	"time"

	"github.com/valyala/fasthttp"
)

// LeaderboardClient talks to the shared remote leaderboard table through a
// PostgREST-style endpoint: one row per player name, later writes for the
// same name overwrite earlier ones.
type LeaderboardClient struct {
	baseURL string
	apiKey  string
	client  *fasthttp.Client
}

func NewLeaderboardClient(cfg *config.Config) *LeaderboardClient {
	return &LeaderboardClient{
		baseURL: cfg.LeaderboardURL,
		apiKey:  cfg.LeaderboardAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.RemoteTimeout,
			WriteTimeout:        constants.RemoteTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Upsert proposes the player's row, keyed by player name.
func (c *LeaderboardClient) Upsert(ctx context.Context, entry domain.LeaderboardEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard entry: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/leaderboard?on_conflict=player_name", c.baseURL))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	req.SetBody(body)

	if err := c.do(ctx, req, resp); err != nil {
		return err
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("leaderboard upsert failed: %d", resp.StatusCode())
	}
	return nil
}

// Top returns the highest-scoring rows, ordered by total score descending.
func (c *LeaderboardClient) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	url := fmt.Sprintf("%s/leaderboard?select=player_name,total_score,badge,frame,name_effect&order=total_score.desc&limit=%d", c.baseURL, limit)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("leaderboard read failed: %d", resp.StatusCode())
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard rows: %w", err)
	}
	for i := range entries {
		if entries[i].Badge == "" {
			entries[i].Badge = domain.CosmeticNone
		}
		if entries[i].Frame == "" {
			entries[i].Frame = domain.CosmeticNone
		}
		if entries[i].NameEffect == "" {
			entries[i].NameEffect = domain.CosmeticNone
		}
	}
	return entries, nil
}

func (c *LeaderboardClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}
