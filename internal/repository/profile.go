package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sofinlearn/internal/domain"
	"sofinlearn/internal/storage"

	"github.com/rs/zerolog"
)

// Persisted document keys. Three logical documents: global settings, the
// last-active-player pointer, and the per-identity ledger map.
const (
	settingsKey   = "sofinlearn_settings"
	lastPlayerKey = "sofinlearn_last_player"
	usersKey      = "sofinlearn_users"
	tutorialKey   = "sofinlearn_tutorial_seen"
)

type ProfileRepository struct {
	batcher *storage.Batcher
	logger  zerolog.Logger
}

func NewProfileRepository(batcher *storage.Batcher, logger zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{batcher: batcher, logger: logger}
}

func (r *ProfileRepository) LoadSettings(ctx context.Context) (domain.Settings, error) {
	raw, ok, err := r.batcher.Get(ctx, settingsKey)
	if err != nil {
		return domain.DefaultSettings(), fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		return domain.DefaultSettings(), nil
	}
	var s domain.Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		r.logger.Warn().Err(err).Msg("corrupt settings document, using defaults")
		return domain.DefaultSettings(), nil
	}
	return s, nil
}

func (r *ProfileRepository) SaveSettings(ctx context.Context, s domain.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return r.batcher.Set(ctx, settingsKey, string(data), true)
}

func (r *ProfileRepository) LastPlayer(ctx context.Context) (string, error) {
	name, _, err := r.batcher.Get(ctx, lastPlayerKey)
	return name, err
}

func (r *ProfileRepository) SetLastPlayer(ctx context.Context, name string) error {
	return r.batcher.Set(ctx, lastPlayerKey, name, true)
}

func (r *ProfileRepository) TutorialSeen(ctx context.Context) (bool, error) {
	_, ok, err := r.batcher.Get(ctx, tutorialKey)
	return ok, err
}

func (r *ProfileRepository) MarkTutorialSeen(ctx context.Context) error {
	return r.batcher.Set(ctx, tutorialKey, "true", true)
}

func (r *ProfileRepository) LoadLedger(ctx context.Context, name string) (*domain.Ledger, bool, error) {
	users, err := r.loadUsers(ctx)
	if err != nil {
		return nil, false, err
	}
	ledger, ok := users[name]
	if !ok {
		return nil, false, nil
	}
	return ledger, true, nil
}

func (r *ProfileRepository) SaveLedger(ctx context.Context, name string, ledger *domain.Ledger, immediate bool) error {
	users, err := r.loadUsers(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Str("player", name).Msg("failed to load users document, rebuilding")
		users = map[string]*domain.Ledger{}
	}
	users[name] = ledger
	return r.saveUsers(ctx, users, immediate)
}

// DeleteLedger removes one identity's ledger. Other identities are left
// untouched.
func (r *ProfileRepository) DeleteLedger(ctx context.Context, name string) error {
	users, err := r.loadUsers(ctx)
	if err != nil {
		return err
	}
	if _, ok := users[name]; !ok {
		return nil
	}
	delete(users, name)
	return r.saveUsers(ctx, users, true)
}

// ExportLedger serializes the named identity's ledger as a self-describing
// document.
func (r *ProfileRepository) ExportLedger(ctx context.Context, name string) (string, error) {
	ledger, ok, err := r.LoadLedger(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrProfileNotFound
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode ledger: %w", err)
	}
	return string(data), nil
}

// ImportLedger fully replaces the named identity's ledger with the given
// snapshot. No field-level merge.
func (r *ProfileRepository) ImportLedger(ctx context.Context, name, data string) (*domain.Ledger, error) {
	var ledger domain.Ledger
	if err := json.Unmarshal([]byte(data), &ledger); err != nil {
		return nil, fmt.Errorf("failed to decode ledger snapshot: %w", err)
	}
	if err := r.SaveLedger(ctx, name, &ledger, true); err != nil {
		return nil, err
	}
	r.logger.Info().Str("player", name).Msg("ledger imported")
	return &ledger, nil
}

func (r *ProfileRepository) loadUsers(ctx context.Context) (map[string]*domain.Ledger, error) {
	raw, ok, err := r.batcher.Get(ctx, usersKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load users document: %w", err)
	}
	if !ok {
		return map[string]*domain.Ledger{}, nil
	}
	var users map[string]*domain.Ledger
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("failed to decode users document: %w", err)
	}
	return users, nil
}

func (r *ProfileRepository) saveUsers(ctx context.Context, users map[string]*domain.Ledger, immediate bool) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode users document: %w", err)
	}
	return r.batcher.Set(ctx, usersKey, string(data), immediate)
}
