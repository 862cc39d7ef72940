package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/domain"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func bankOf(n int) domain.QuestionProvider {
	return func(topic, language string) ([]domain.Question, error) {
		qs := make([]domain.Question, n)
		for i := range qs {
			qs[i] = domain.Question{
				Prompt:       fmt.Sprintf("q%d", i),
				Options:      []string{"a", "b", "c", "d"},
				CorrectIndex: i % 4,
			}
		}
		return qs, nil
	}
}

type capture struct {
	completed     bool
	completeScore int
	completeStars int
	gameOver      bool
	gameOverScore int
	healthLost    int
	hintsUsed     int
}

func (c *capture) events() Events {
	return Events{
		OnComplete: func(score, stars int) {
			c.completed = true
			c.completeScore = score
			c.completeStars = stars
		},
		OnGameOver: func(score int) {
			c.gameOver = true
			c.gameOverScore = score
		},
		OnHealthLost: func() { c.healthLost++ },
		OnHintUsed:   func() { c.hintsUsed++ },
	}
}

func newTestSession(t *testing.T, questions, health, hints int) (*Session, *clock.Fake, *capture) {
	t.Helper()
	clk := clock.NewFake()
	rec := &capture{}
	s, err := NewSession(Config{
		LevelID:  1,
		Health:   health,
		Hints:    hints,
		Language: "en",
		Provider: bankOf(questions),
		Clock:    clk,
		Logger:   zerolog.Nop(),
		Events:   rec.events(),
		Rand:     rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, clk, rec
}

func correctIdx(s *Session) int {
	return s.Snapshot().Question.CorrectIndex
}

func wrongIdx(s *Session) int {
	v := s.Snapshot()
	return (v.Question.CorrectIndex + 1) % len(v.Question.Options)
}

func advanceToNextQuestion(clk *clock.Fake) {
	clk.Advance(constants.FeedbackDelay + constants.TransitionDelay)
}

func TestCorrectAnswerScoresWithTimeBonus(t *testing.T) {
	s, _, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	s.SubmitAnswer(correctIdx(s))

	// Full clock remaining: base 10 + floor(15 * 0.5).
	if got := s.Score(); got != 17 {
		t.Errorf("expected score 17, got %d", got)
	}
	if s.State() != StateFeedback {
		t.Errorf("expected feedback state, got %v", s.State())
	}
}

func TestTimeBonusShrinksAsClockRuns(t *testing.T) {
	s, clk, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	clk.Advance(5 * time.Second)
	s.SubmitAnswer(correctIdx(s))

	// 10 seconds left: base 10 + floor(10 * 0.5).
	if got := s.Score(); got != 15 {
		t.Errorf("expected score 15, got %d", got)
	}
}

func TestWrongAnswerLosesHealthAndAdvances(t *testing.T) {
	s, clk, rec := newTestSession(t, 3, 3, 0)
	s.Start()

	s.SubmitAnswer(wrongIdx(s))

	v := s.Snapshot()
	if v.Mistakes != 1 || v.Health != 2 {
		t.Errorf("expected 1 mistake and 2 health, got %d/%d", v.Mistakes, v.Health)
	}
	if rec.healthLost != 1 {
		t.Errorf("expected one health-lost event, got %d", rec.healthLost)
	}

	advanceToNextQuestion(clk)
	v = s.Snapshot()
	if v.State != StateAnswering || v.Index != 1 {
		t.Errorf("expected answering question 1, got state=%v index=%d", v.State, v.Index)
	}
	if v.TimeLeft != constants.QuizTimePerQuestion {
		t.Errorf("timer should reset for next question, got %d", v.TimeLeft)
	}
}

func TestTimeoutTakesWrongAnswerPath(t *testing.T) {
	s, clk, rec := newTestSession(t, 3, 3, 0)
	s.Start()

	clk.Advance(constants.QuizTimePerQuestion * time.Second)

	v := s.Snapshot()
	if v.Feedback != FeedbackWrong || v.Mistakes != 1 || v.Health != 2 {
		t.Errorf("timeout should resolve as a wrong answer: %+v", v)
	}
	if rec.healthLost != 1 {
		t.Errorf("expected one health-lost event, got %d", rec.healthLost)
	}
}

func TestLastLifeFailsAndNeverAdvances(t *testing.T) {
	s, clk, rec := newTestSession(t, 3, 1, 0)
	s.Start()

	s.SubmitAnswer(wrongIdx(s))
	clk.Advance(constants.FeedbackDelay)

	if s.State() != StateFailed {
		t.Fatalf("expected failed, got %v", s.State())
	}
	if !rec.gameOver || rec.gameOverScore != 0 {
		t.Errorf("expected game-over with score 0, got %+v", rec)
	}

	// No stray timer may revive the run.
	clk.Advance(10 * time.Second)
	if s.State() != StateFailed || rec.completed {
		t.Errorf("failed session must stay failed, state=%v completed=%v", s.State(), rec.completed)
	}
	if v := s.Snapshot(); v.Index != 0 {
		t.Errorf("failed session must not advance, index=%d", v.Index)
	}
}

func TestOutcomeCommittedExactlyOnce(t *testing.T) {
	s, _, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	idx := correctIdx(s)
	s.SubmitAnswer(idx)
	score := s.Score()

	// A second submission during feedback is dropped, not double-scored.
	s.SubmitAnswer(idx)
	s.SubmitAnswer(wrongIdx(s))

	v := s.Snapshot()
	if v.Score != score || v.Mistakes != 0 || v.Health != 3 {
		t.Errorf("duplicate submissions must not change the outcome: %+v", v)
	}
}

func TestHintEliminatesTwoWrongOptions(t *testing.T) {
	s, _, rec := newTestSession(t, 3, 3, 2)
	s.Start()

	if !s.UseHint() {
		t.Fatal("hint should be accepted")
	}

	v := s.Snapshot()
	if len(v.Eliminated) != 2 {
		t.Fatalf("expected exactly 2 eliminated options, got %d", len(v.Eliminated))
	}
	for _, idx := range v.Eliminated {
		if idx == v.Question.CorrectIndex {
			t.Error("hint must never eliminate the correct option")
		}
	}
	for _, idx := range v.Eliminated {
		if idx == v.Focused {
			t.Error("focus must not rest on an eliminated option")
		}
	}
	if v.Hints != 1 {
		t.Errorf("expected 1 hint remaining, got %d", v.Hints)
	}
	if rec.hintsUsed != 1 {
		t.Errorf("expected one hint-used event, got %d", rec.hintsUsed)
	}
}

func TestHintRejectedWhenRepeatedOrExhausted(t *testing.T) {
	s, clk, _ := newTestSession(t, 3, 3, 1)
	s.Start()

	if !s.UseHint() {
		t.Fatal("first hint should be accepted")
	}
	if s.UseHint() {
		t.Error("second hint on the same question must be rejected")
	}

	s.SubmitAnswer(correctIdx(s))
	advanceToNextQuestion(clk)

	if s.UseHint() {
		t.Error("hint must be rejected with zero hints remaining")
	}
}

func TestEliminatedOptionCannotBeSubmitted(t *testing.T) {
	s, _, _ := newTestSession(t, 3, 3, 1)
	s.Start()
	s.UseHint()

	v := s.Snapshot()
	s.SubmitAnswer(v.Eliminated[0])

	if s.State() != StateAnswering {
		t.Errorf("eliminated option must not resolve the question, state=%v", s.State())
	}
}

func TestPauseFreezesCountdown(t *testing.T) {
	s, clk, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	s.TogglePause()
	clk.Advance(40 * time.Second)

	v := s.Snapshot()
	if v.TimeLeft != constants.QuizTimePerQuestion || v.State != StateAnswering {
		t.Errorf("paused session must not run down: %+v", v)
	}

	s.SubmitAnswer(correctIdx(s))
	if s.State() != StateAnswering {
		t.Error("input must be ignored while paused")
	}

	s.TogglePause()
	clk.Advance(1 * time.Second)
	if got := s.Snapshot().TimeLeft; got != constants.QuizTimePerQuestion-1 {
		t.Errorf("countdown should resume after unpause, timeLeft=%d", got)
	}
}

func TestCompleteRunAwardsThreeStars(t *testing.T) {
	s, clk, rec := newTestSession(t, 2, 3, 0)
	s.Start()

	s.SubmitAnswer(correctIdx(s))
	advanceToNextQuestion(clk)
	s.SubmitAnswer(correctIdx(s))
	advanceToNextQuestion(clk)

	if s.State() != StateComplete {
		t.Fatalf("expected complete, got %v", s.State())
	}
	if !rec.completed || rec.completeStars != 3 {
		t.Errorf("expected completion with 3 stars, got %+v", rec)
	}
	if rec.completeScore != 34 {
		t.Errorf("expected score 34 for two instant answers, got %d", rec.completeScore)
	}
}

func TestOneMistakeRunAwardsTwoStars(t *testing.T) {
	s, clk, rec := newTestSession(t, 2, 3, 0)
	s.Start()

	s.SubmitAnswer(wrongIdx(s))
	advanceToNextQuestion(clk)
	s.SubmitAnswer(correctIdx(s))
	advanceToNextQuestion(clk)

	if !rec.completed || rec.completeStars != 2 {
		t.Errorf("expected completion with 2 stars, got %+v", rec)
	}
}

func TestStarsForMistakes(t *testing.T) {
	tests := []struct {
		name     string
		mistakes int
		want     int
	}{
		{"flawless", 0, 3},
		{"one mistake", 1, 2},
		{"two mistakes", 2, 1},
		{"many mistakes", 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StarsForMistakes(tt.mistakes); got != tt.want {
				t.Errorf("StarsForMistakes(%d) = %d, want %d", tt.mistakes, got, tt.want)
			}
		})
	}
}

func TestCloseCancelsPendingTransitions(t *testing.T) {
	s, clk, rec := newTestSession(t, 1, 3, 0)
	s.Start()

	s.SubmitAnswer(correctIdx(s))
	s.Close()
	clk.Advance(10 * time.Second)

	if rec.completed {
		t.Error("closed session must not fire completion")
	}
	if s.State() == StateComplete {
		t.Error("closed session must not reach a terminal state")
	}
}

func TestQuickSelectIsOneBased(t *testing.T) {
	s, _, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	s.QuickSelect(correctIdx(s) + 1)

	if s.Snapshot().Feedback != FeedbackCorrect {
		t.Error("quick select should map key n to option n-1")
	}
}

func TestFocusWrapsAround(t *testing.T) {
	s, _, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	for i := 0; i < 4; i++ {
		s.FocusNext()
	}
	if got := s.Snapshot().Focused; got != 0 {
		t.Errorf("focus should wrap forward to 0, got %d", got)
	}

	s.FocusPrev()
	if got := s.Snapshot().Focused; got != 3 {
		t.Errorf("focus should wrap backward to 3, got %d", got)
	}
}

func TestSelectFocusedSubmitsCurrentFocus(t *testing.T) {
	s, _, _ := newTestSession(t, 3, 3, 0)
	s.Start()

	for s.Snapshot().Focused != correctIdx(s) {
		s.FocusNext()
	}
	s.SelectFocused()

	if s.Snapshot().Feedback != FeedbackCorrect {
		t.Error("focused selection should resolve against the focused option")
	}
}

func TestEmptyBankFailsFast(t *testing.T) {
	_, err := NewSession(Config{
		LevelID:  1,
		Health:   3,
		Language: "en",
		Provider: func(topic, language string) ([]domain.Question, error) { return nil, nil },
		Clock:    clock.NewFake(),
		Logger:   zerolog.Nop(),
	})
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
}

func TestUnknownLevelFailsFast(t *testing.T) {
	_, err := NewSession(Config{
		LevelID:  999,
		Health:   3,
		Language: "en",
		Provider: bankOf(3),
		Clock:    clock.NewFake(),
		Logger:   zerolog.Nop(),
	})
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
}

func TestShuffleRemapsCorrectIndex(t *testing.T) {
	src := []domain.Question{
		{Prompt: "q", Options: []string{"right", "w1", "w2", "w3"}, CorrectIndex: 0},
	}
	for seed := int64(0); seed < 20; seed++ {
		out := shuffleQuestions(rand.New(rand.NewSource(seed)), src)
		if out[0].Options[out[0].CorrectIndex] != "right" {
			t.Fatalf("seed %d: correct index points at %q", seed, out[0].Options[out[0].CorrectIndex])
		}
	}
}
