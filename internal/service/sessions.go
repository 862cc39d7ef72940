package service

import (
	"context"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/domain"
	"sofinlearn/internal/quiz"
	"sofinlearn/internal/sidequest"

	"github.com/rs/zerolog"
)

// SessionService builds quiz and side-quest runs for the active player and
// routes their terminal outcomes into the progression ledger. The question
// provider is an external collaborator supplied by the embedding shell.
type SessionService struct {
	progress *ProgressionService
	provider domain.QuestionProvider
	clk      clock.Clock
	logger   zerolog.Logger
}

func NewSessionService(progress *ProgressionService, provider domain.QuestionProvider, clk clock.Clock, logger zerolog.Logger) *SessionService {
	return &SessionService{progress: progress, provider: provider, clk: clk, logger: logger}
}

// QuizHooks are the shell's notifications for a quiz run. The ledger has
// already been updated when they fire.
type QuizHooks struct {
	OnComplete   func(score, stars int, result LevelOutcomeResult)
	OnGameOver   func(score int)
	OnHealthLost func()
	OnHintUsed   func()
}

// StartQuiz creates and starts a run of the given level, seeded with the
// active ledger's health and hints.
func (g *SessionService) StartQuiz(ctx context.Context, levelID int, language string, hooks QuizHooks) (*quiz.Session, error) {
	ledger := g.progress.Ledger()
	if ledger == nil {
		return nil, domain.ErrProfileNotFound
	}

	session, err := quiz.NewSession(quiz.Config{
		LevelID:  levelID,
		Health:   ledger.Health,
		Hints:    ledger.Hints,
		Language: language,
		Provider: g.provider,
		Clock:    g.clk,
		Logger:   g.logger,
		Events: quiz.Events{
			OnComplete: func(score, stars int) {
				result, err := g.progress.ApplyLevelOutcome(context.Background(), levelID, score, stars)
				if err != nil {
					g.logger.Error().Err(err).Int("level_id", levelID).Msg("failed to apply level outcome")
					return
				}
				if hooks.OnComplete != nil {
					hooks.OnComplete(score, stars, result)
				}
			},
			OnGameOver: func(score int) {
				if hooks.OnGameOver != nil {
					hooks.OnGameOver(score)
				}
			},
			OnHealthLost: func() {
				g.progress.RecordHealthLost(context.Background())
				if hooks.OnHealthLost != nil {
					hooks.OnHealthLost()
				}
			},
			OnHintUsed: func() {
				g.progress.RecordHintUsed(context.Background())
				if hooks.OnHintUsed != nil {
					hooks.OnHintUsed()
				}
			},
		},
	})
	if err != nil {
		return nil, err
	}

	session.Start()
	return session, nil
}

// SideQuestHooks mirror QuizHooks for the chase mini-session.
type SideQuestHooks struct {
	OnComplete func(xpEarned int)
	OnCaught   func()
}

// StartSideQuest creates and starts the chase for the given stage.
func (g *SessionService) StartSideQuest(ctx context.Context, stage int, hooks SideQuestHooks) *sidequest.Session {
	session := sidequest.NewSession(sidequest.Config{
		Stage:  stage,
		Clock:  g.clk,
		Logger: g.logger,
		Events: sidequest.Events{
			OnComplete: func(xpEarned int) {
				if err := g.progress.ApplySideQuestOutcome(context.Background(), stage, xpEarned); err != nil {
					g.logger.Error().Err(err).Int("stage", stage).Msg("failed to apply side quest outcome")
					return
				}
				if hooks.OnComplete != nil {
					hooks.OnComplete(xpEarned)
				}
			},
			OnCaught: func() {
				if hooks.OnCaught != nil {
					hooks.OnCaught()
				}
			},
		},
	})

	session.Start()
	return session
}
