package repository

import (
	"context"
	"errors"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/domain"
	"sofinlearn/internal/storage"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func newTestRepo() *ProfileRepository {
	batcher := storage.NewBatcher(newMemStore(), clock.NewFake(), zerolog.Nop())
	return NewProfileRepository(batcher, zerolog.Nop())
}

func TestLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	ledger := domain.NewLedger()
	ledger.XP = 420
	ledger.LevelScores[3] = 95
	ledger.LevelStars[3] = 2
	ledger.CompletedLevels = []int{1, 2, 3}

	if err := repo.SaveLedger(ctx, "alice", ledger, true); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	got, ok, err := repo.LoadLedger(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("LoadLedger: ok=%v err=%v", ok, err)
	}
	if got.XP != 420 || got.LevelScores[3] != 95 || got.LevelStars[3] != 2 {
		t.Errorf("ledger fields lost in round trip: %+v", got)
	}
	if len(got.CompletedLevels) != 3 {
		t.Errorf("expected 3 completed levels, got %d", len(got.CompletedLevels))
	}
}

func TestLoadLedgerUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	_, ok, err := repo.LoadLedger(ctx, "nobody")
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if ok {
		t.Error("expected no ledger for unknown player")
	}
}

func TestDeleteLedgerLeavesOtherIdentities(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	if err := repo.SaveLedger(ctx, "alice", domain.NewLedger(), true); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	if err := repo.SaveLedger(ctx, "bob", domain.NewLedger(), true); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	if err := repo.DeleteLedger(ctx, "alice"); err != nil {
		t.Fatalf("DeleteLedger: %v", err)
	}

	if _, ok, _ := repo.LoadLedger(ctx, "alice"); ok {
		t.Error("alice should be deleted")
	}
	if _, ok, _ := repo.LoadLedger(ctx, "bob"); !ok {
		t.Error("bob should be untouched")
	}
}

func TestExportImportReplacesWholeLedger(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	ledger := domain.NewLedger()
	ledger.XP = 1000
	ledger.Hints = 5
	if err := repo.SaveLedger(ctx, "alice", ledger, true); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	snapshot, err := repo.ExportLedger(ctx, "alice")
	if err != nil {
		t.Fatalf("ExportLedger: %v", err)
	}

	// Diverge, then import the snapshot back. Import is a full replace,
	// not a merge.
	ledger.XP = 9999
	ledger.Hints = 0
	if err := repo.SaveLedger(ctx, "alice", ledger, true); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	restored, err := repo.ImportLedger(ctx, "alice", snapshot)
	if err != nil {
		t.Fatalf("ImportLedger: %v", err)
	}
	if restored.XP != 1000 || restored.Hints != 5 {
		t.Errorf("import did not restore snapshot: xp=%d hints=%d", restored.XP, restored.Hints)
	}
}

func TestExportUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	_, err := repo.ExportLedger(ctx, "nobody")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestImportRejectsMalformedSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	if _, err := repo.ImportLedger(ctx, "alice", "{not json"); err == nil {
		t.Error("expected error for malformed snapshot")
	}
}

func TestSettingsDefaultsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	s, err := repo.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Language != "en" || !s.MusicOn {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	if err := repo.SaveSettings(ctx, domain.Settings{Language: "es", MusicOn: false}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	s, err := repo.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Language != "es" || s.MusicOn {
		t.Errorf("settings lost in round trip: %+v", s)
	}
}

func TestLastPlayerPointer(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	if name, _ := repo.LastPlayer(ctx); name != "" {
		t.Errorf("expected empty last player, got %q", name)
	}
	if err := repo.SetLastPlayer(ctx, "alice"); err != nil {
		t.Fatalf("SetLastPlayer: %v", err)
	}
	if name, _ := repo.LastPlayer(ctx); name != "alice" {
		t.Errorf("expected alice, got %q", name)
	}
}

func TestTutorialFlag(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	if seen, _ := repo.TutorialSeen(ctx); seen {
		t.Error("tutorial should start unseen")
	}
	if err := repo.MarkTutorialSeen(ctx); err != nil {
		t.Fatalf("MarkTutorialSeen: %v", err)
	}
	if seen, _ := repo.TutorialSeen(ctx); !seen {
		t.Error("tutorial should be seen after marking")
	}
}
