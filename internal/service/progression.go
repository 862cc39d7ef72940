package service

import (
	"context"
	"fmt"
	"math"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/domain"
	"sofinlearn/internal/repository"
	leadsync "sofinlearn/internal/sync"
	"sync"

	"github.com/rs/zerolog"
)

// ProgressionService owns the active player's ledger. Every mutating
// operation computes the full next ledger, attempts persistence, then
// swaps it in; a storage failure is logged and the operation proceeds
// in-memory. Identity-establishing and purchase operations persist with
// the immediate flag, everything else is batched.
type ProgressionService struct {
	repo   *repository.ProfileRepository
	syncer *leadsync.Engine
	logger zerolog.Logger

	mu         sync.Mutex
	playerName string
	ledger     *domain.Ledger
}

func NewProgressionService(repo *repository.ProfileRepository, syncer *leadsync.Engine, logger zerolog.Logger) *ProgressionService {
	return &ProgressionService{repo: repo, syncer: syncer, logger: logger}
}

// LevelOutcomeResult reports what a level completion changed.
type LevelOutcomeResult struct {
	EarnedXP          int
	StageBonus        int
	FirstClear        bool
	StageCompleted    bool
	SideQuestUnlocked bool
	GameComplete      bool
}

type ConsumableKind string

const (
	KindPotion ConsumableKind = "potion"
	KindHint   ConsumableKind = "hint"
)

// CreateProfile establishes the active identity: the name is sanitized and
// filtered at this boundary, the ledger is loaded or created with
// defaults, and the last-active-player pointer is persisted immediately.
func (s *ProgressionService) CreateProfile(ctx context.Context, rawName string) (*domain.Ledger, error) {
	name, err := ValidateName(rawName)
	if err != nil {
		return nil, err
	}

	ledger, ok, err := s.repo.LoadLedger(ctx, name)
	if err != nil {
		s.logger.Warn().Err(err).Str("player", name).Msg("failed to load ledger, starting fresh")
		ok = false
	}
	if !ok {
		ledger = domain.NewLedger()
		if err := s.repo.SaveLedger(ctx, name, ledger, true); err != nil {
			s.logger.Error().Err(err).Str("player", name).Msg("failed to persist new ledger")
		}
	}

	if err := s.repo.SetLastPlayer(ctx, name); err != nil {
		s.logger.Error().Err(err).Str("player", name).Msg("failed to persist last player pointer")
	}

	s.mu.Lock()
	s.playerName = name
	s.ledger = ledger
	s.mu.Unlock()

	s.logger.Info().Str("player", name).Bool("existing", ok).Msg("profile active")
	return ledger.Clone(), nil
}

// ResumeLastProfile loads the identity named by the last-active-player
// pointer, if any.
func (s *ProgressionService) ResumeLastProfile(ctx context.Context) (string, *domain.Ledger, error) {
	name, err := s.repo.LastPlayer(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read last player pointer: %w", err)
	}
	if name == "" {
		return "", nil, domain.ErrProfileNotFound
	}
	ledger, ok, err := s.repo.LoadLedger(ctx, name)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, domain.ErrProfileNotFound
	}

	s.mu.Lock()
	s.playerName = name
	s.ledger = ledger
	s.mu.Unlock()
	return name, ledger.Clone(), nil
}

// ApplyLevelOutcome books one finished quiz run.
//
// XP receives the star-multiplied score plus bonuses; TotalScore receives
// the raw score plus the stage bonus. The divergence is deliberate: XP is
// the spendable reward, TotalScore the public ranking metric. A replay of
// an already-cleared level runs the same bookkeeping minus the first-clear
// bonus.
func (s *ProgressionService) ApplyLevelOutcome(ctx context.Context, levelID, score, stars int) (LevelOutcomeResult, error) {
	level, ok := domain.LevelByID(levelID)
	if !ok {
		return LevelOutcomeResult{}, fmt.Errorf("unknown level %d", levelID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return LevelOutcomeResult{}, domain.ErrProfileNotFound
	}

	next := s.ledger.Clone()
	res := LevelOutcomeResult{}

	earned := score
	switch {
	case stars == 3:
		earned = int(math.Floor(float64(earned) * constants.Star3Multiplier))
	case stars == 2:
		earned = int(math.Floor(float64(earned) * constants.Star2Multiplier))
	}

	res.FirstClear = !next.HasCompletedLevel(levelID)
	if res.FirstClear {
		earned += constants.FirstClearBonus
		next.CompletedLevels = append(next.CompletedLevels, levelID)
	}

	if score > next.LevelScores[levelID] {
		next.LevelScores[levelID] = score
	}
	if stars > next.LevelStars[levelID] {
		next.LevelStars[levelID] = stars
	}

	stageDone := true
	for _, id := range domain.StageLevels(level.Stage) {
		if !next.HasCompletedLevel(id) {
			stageDone = false
			break
		}
	}
	if stageDone && !next.HasCompletedStage(level.Stage) {
		res.StageCompleted = true
		res.StageBonus = constants.StageCompletionBonus
		next.CompletedStages = append(next.CompletedStages, level.Stage)
		res.SideQuestUnlocked = !next.HasCompletedSideQuest(level.Stage)
	}

	next.XP += earned + res.StageBonus
	next.TotalScore += score + res.StageBonus
	res.EarnedXP = earned
	res.GameComplete = len(next.CompletedStages) == len(domain.Stages)

	s.persistLocked(ctx, next, true)
	s.ledger = next

	s.logger.Info().
		Str("player", s.playerName).
		Int("level_id", levelID).
		Int("score", score).
		Int("stars", stars).
		Int("earned_xp", earned).
		Int("stage_bonus", res.StageBonus).
		Bool("first_clear", res.FirstClear).
		Bool("game_complete", res.GameComplete).
		Msg("level outcome applied")

	s.publishLocked()
	return res, nil
}

// ApplySideQuestOutcome books an escaped side quest. The reward feeds both
// XP and TotalScore unmultiplied.
func (s *ProgressionService) ApplySideQuestOutcome(ctx context.Context, stage, xpEarned int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ErrProfileNotFound
	}

	next := s.ledger.Clone()
	if !next.HasCompletedSideQuest(stage) {
		next.CompletedSideQuests = append(next.CompletedSideQuests, stage)
	}
	next.XP += xpEarned
	next.TotalScore += xpEarned

	s.persistLocked(ctx, next, true)
	s.ledger = next

	s.logger.Info().Str("player", s.playerName).Int("stage", stage).Int("xp_earned", xpEarned).Msg("side quest outcome applied")
	s.publishLocked()
	return nil
}

// ApplyPurchase buys one consumable. Declined with no state change when XP
// is short or the consumable is at its cap.
func (s *ProgressionService) ApplyPurchase(ctx context.Context, kind ConsumableKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ErrProfileNotFound
	}

	var cost, have, limit int
	switch kind {
	case KindPotion:
		cost, have, limit = constants.ShopPotionCost, s.ledger.HealthPotions, constants.ShopMaxPotions
	case KindHint:
		cost, have, limit = constants.ShopHintCost, s.ledger.Hints, constants.ShopMaxHints
	default:
		return domain.ErrUnknownItem
	}

	if have >= limit {
		return domain.ErrLimitReached
	}
	if s.ledger.XP < cost {
		return domain.ErrInsufficientFunds
	}

	next := s.ledger.Clone()
	next.XP -= cost
	switch kind {
	case KindPotion:
		next.HealthPotions++
	case KindHint:
		next.Hints++
	}

	s.persistLocked(ctx, next, true)
	s.ledger = next

	s.logger.Info().Str("player", s.playerName).Str("kind", string(kind)).Int("cost", cost).Msg("purchase applied")
	return nil
}

// ApplyCosmeticPurchase appends the item to ownership. Equip state is
// untouched; the player equips separately.
func (s *ProgressionService) ApplyCosmeticPurchase(ctx context.Context, itemID string) error {
	item, ok := domain.CosmeticItemByID(itemID)
	if !ok {
		return domain.ErrUnknownItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ErrProfileNotFound
	}
	if s.ledger.Cosmetics.Owns(itemID) {
		return domain.ErrAlreadyOwned
	}
	if s.ledger.XP < item.Cost {
		return domain.ErrInsufficientFunds
	}

	next := s.ledger.Clone()
	next.XP -= item.Cost
	next.Cosmetics.OwnedItems = append(next.Cosmetics.OwnedItems, itemID)

	s.persistLocked(ctx, next, true)
	s.ledger = next

	s.logger.Info().Str("player", s.playerName).Str("item", itemID).Int("cost", item.Cost).Msg("cosmetic purchased")
	return nil
}

// Equip points a cosmetic slot at an owned item and publishes the new
// public snapshot. Equipping an unowned item is reported, not applied.
func (s *ProgressionService) Equip(ctx context.Context, itemID string) error {
	item, ok := domain.CosmeticItemByID(itemID)
	if !ok {
		return domain.ErrUnknownItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ErrProfileNotFound
	}
	if !s.ledger.Cosmetics.Owns(itemID) {
		return domain.ErrNotOwned
	}

	next := s.ledger.Clone()
	switch item.Kind {
	case domain.KindBadge:
		next.Cosmetics.Badge = item.Value
	case domain.KindFrame:
		next.Cosmetics.Frame = item.Value
	case domain.KindNameEffect:
		next.Cosmetics.NameEffect = item.Value
	}

	s.persistLocked(ctx, next, true)
	s.ledger = next

	s.logger.Info().Str("player", s.playerName).Str("item", itemID).Msg("cosmetic equipped")
	s.publishLocked()
	return nil
}

// Unequip always succeeds, resetting the slot to none, and publishes.
func (s *ProgressionService) Unequip(ctx context.Context, kind domain.CosmeticKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ErrProfileNotFound
	}

	next := s.ledger.Clone()
	switch kind {
	case domain.KindBadge:
		next.Cosmetics.Badge = domain.CosmeticNone
	case domain.KindFrame:
		next.Cosmetics.Frame = domain.CosmeticNone
	case domain.KindNameEffect:
		next.Cosmetics.NameEffect = domain.CosmeticNone
	default:
		return domain.ErrUnknownItem
	}

	s.persistLocked(ctx, next, true)
	s.ledger = next

	s.logger.Info().Str("player", s.playerName).Str("slot", string(kind)).Msg("cosmetic unequipped")
	s.publishLocked()
	return nil
}

// UsePotion consumes one potion for one health, capped at max.
func (s *ProgressionService) UsePotion(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ErrProfileNotFound
	}
	if s.ledger.HealthPotions <= 0 {
		return domain.ErrLimitReached
	}
	if s.ledger.Health >= s.ledger.MaxHealth {
		return domain.ErrLimitReached
	}

	next := s.ledger.Clone()
	next.HealthPotions--
	next.Health++
	if next.Health > next.MaxHealth {
		next.Health = next.MaxHealth
	}

	s.persistLocked(ctx, next, false)
	s.ledger = next
	return nil
}

// RecordHealthLost books one lost life during a run. Batched persistence;
// losing health mid-question is not identity-changing.
func (s *ProgressionService) RecordHealthLost(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return
	}
	next := s.ledger.Clone()
	if next.Health > 0 {
		next.Health--
	}
	s.persistLocked(ctx, next, false)
	s.ledger = next
}

// RecordHintUsed books one consumed hint.
func (s *ProgressionService) RecordHintUsed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return
	}
	next := s.ledger.Clone()
	if next.Hints > 0 {
		next.Hints--
	}
	s.persistLocked(ctx, next, false)
	s.ledger = next
}

// RetryLevel restores health for another attempt after a game over.
func (s *ProgressionService) RetryLevel(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return
	}
	next := s.ledger.Clone()
	next.Health = constants.InitialHealth
	s.persistLocked(ctx, next, false)
	s.ledger = next
}

// ResetAll deletes the named identity's ledger and, if it is the active
// one, restores defaults in memory. Other identities are unaffected.
func (s *ProgressionService) ResetAll(ctx context.Context, name string) error {
	if err := s.repo.DeleteLedger(ctx, name); err != nil {
		return fmt.Errorf("failed to delete ledger for %s: %w", name, err)
	}

	s.mu.Lock()
	if s.playerName == name {
		s.ledger = domain.NewLedger()
	}
	s.mu.Unlock()

	s.logger.Info().Str("player", name).Msg("progress reset")
	return nil
}

func (s *ProgressionService) Settings(ctx context.Context) (domain.Settings, error) {
	return s.repo.LoadSettings(ctx)
}

func (s *ProgressionService) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return s.repo.SaveSettings(ctx, settings)
}

func (s *ProgressionService) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	name := s.playerName
	s.mu.Unlock()
	if name == "" {
		return "", domain.ErrProfileNotFound
	}
	return s.repo.ExportLedger(ctx, name)
}

// Import fully replaces the active identity's ledger with the given
// snapshot.
func (s *ProgressionService) Import(ctx context.Context, data string) (*domain.Ledger, error) {
	s.mu.Lock()
	name := s.playerName
	s.mu.Unlock()
	if name == "" {
		return nil, domain.ErrProfileNotFound
	}

	ledger, err := s.repo.ImportLedger(ctx, name, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.ledger = ledger
	s.mu.Unlock()
	return ledger.Clone(), nil
}

// PlayerName returns the active identity, empty when none.
func (s *ProgressionService) PlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerName
}

// Ledger returns a copy of the active ledger, nil when none.
func (s *ProgressionService) Ledger() *domain.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Clone()
}

func (s *ProgressionService) persistLocked(ctx context.Context, next *domain.Ledger, immediate bool) {
	if s.playerName == "" {
		return
	}
	if err := s.repo.SaveLedger(ctx, s.playerName, next, immediate); err != nil {
		// Accepted data-loss risk: the in-memory ledger stays ahead of
		// durable state until the next successful write.
		s.logger.Error().Err(err).Str("player", s.playerName).Msg("failed to persist ledger")
	}
}

func (s *ProgressionService) publishLocked() {
	if s.syncer == nil || s.playerName == "" {
		return
	}
	s.syncer.Publish(s.playerName, s.ledger.TotalScore, s.ledger.Cosmetics)
}
