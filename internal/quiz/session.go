package quiz

import (
	"fmt"
	"math"
	"math/rand"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/domain"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the session's position in the machine
//
//	Loading -> Answering -> Feedback -> Transitioning -> Answering | Complete
//	                     \-> Feedback(wrong, last life) -> Failed
//
// Feedback doubles as the "outcome committed for this question" marker: a
// second resolve attempt for the same question finds the state has already
// left Answering and is rejected. Paused is orthogonal and freezes timers.
type State int

const (
	StateLoading State = iota
	StateAnswering
	StateFeedback
	StateTransitioning
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnswering:
		return "answering"
	case StateFeedback:
		return "feedback"
	case StateTransitioning:
		return "transitioning"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackCorrect
	FeedbackWrong
)

// Events are the session's callbacks into the owning flow. Any of them may
// be nil. They are invoked with the session lock held, on the goroutine
// that triggered the transition (input or timer).
type Events struct {
	OnComplete   func(score, stars int)
	OnGameOver   func(score int)
	OnHealthLost func()
	OnHintUsed   func()
}

type Config struct {
	LevelID  int
	Health   int
	Hints    int
	Language string
	Provider domain.QuestionProvider
	Clock    clock.Clock
	Logger   zerolog.Logger
	Events   Events

	// Rand drives question and option shuffling. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Session drives one timed quiz run. All mutation happens under mu; every
// scheduled callback re-checks closed and the state before acting, so a
// torn-down session never applies a stale timer's effects.
type Session struct {
	id      string
	levelID int
	clk     clock.Clock
	logger  zerolog.Logger
	events  Events

	mu         sync.Mutex
	state      State
	paused     bool
	closed     bool
	questions  []domain.Question
	current    int
	score      int
	mistakes   int
	timeLeft   int
	health     int
	hints      int
	eliminated []int
	focused    int
	feedback   Feedback

	tickTimer  clock.Timer
	delayTimer clock.Timer
}

func NewSession(cfg Config) (*Session, error) {
	level, ok := domain.LevelByID(cfg.LevelID)
	if !ok {
		return nil, fmt.Errorf("level %d: %w", cfg.LevelID, domain.ErrNoQuestions)
	}

	questions, err := cfg.Provider(level.Topic, cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", level.Topic, domain.ErrNoQuestions)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("topic %s: %w", level.Topic, domain.ErrNoQuestions)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	id := uuid.New().String()
	s := &Session{
		id:        id,
		levelID:   cfg.LevelID,
		clk:       cfg.Clock,
		logger:    cfg.Logger.With().Str("session_id", id).Int("level_id", cfg.LevelID).Logger(),
		events:    cfg.Events,
		state:     StateLoading,
		questions: shuffleQuestions(rng, questions),
		timeLeft:  constants.QuizTimePerQuestion,
		health:    cfg.Health,
		hints:     cfg.Hints,
	}

	s.logger.Info().Int("questions", len(s.questions)).Msg("quiz session created")
	return s, nil
}

// shuffleQuestions shuffles question order and, independently, each
// question's option order, remapping the correct index.
func shuffleQuestions(rng *rand.Rand, src []domain.Question) []domain.Question {
	out := make([]domain.Question, len(src))
	copy(out, src)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	for qi := range out {
		perm := rng.Perm(len(out[qi].Options))
		options := make([]string, len(out[qi].Options))
		correct := 0
		for newIdx, oldIdx := range perm {
			options[newIdx] = out[qi].Options[oldIdx]
			if oldIdx == out[qi].CorrectIndex {
				correct = newIdx
			}
		}
		out[qi].Options = options
		out[qi].CorrectIndex = correct
	}
	return out
}

// Start moves Loading -> Answering and arms the countdown.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading || s.closed {
		return
	}
	s.state = StateAnswering
	s.armTickLocked()
}

// SubmitAnswer resolves the current question against the given option.
// Input is accepted only while Answering, unpaused, and for an option that
// has not been eliminated by a hint.
func (s *Session) SubmitAnswer(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.paused || s.closed {
		return
	}
	q := s.questions[s.current]
	if idx < 0 || idx >= len(q.Options) || s.isEliminatedLocked(idx) {
		return
	}
	s.resolveLocked(idx == q.CorrectIndex)
}

// SelectFocused submits the currently focused option.
func (s *Session) SelectFocused() {
	s.mu.Lock()
	focused := s.focused
	s.mu.Unlock()
	s.SubmitAnswer(focused)
}

// QuickSelect maps keys 1..n to options 0..n-1.
func (s *Session) QuickSelect(n int) {
	s.SubmitAnswer(n - 1)
}

func (s *Session) FocusNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.paused || s.closed {
		return
	}
	s.focused = (s.focused + 1) % len(s.questions[s.current].Options)
}

func (s *Session) FocusPrev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.paused || s.closed {
		return
	}
	n := len(s.questions[s.current].Options)
	s.focused = (s.focused - 1 + n) % n
}

// UseHint eliminates exactly two incorrect options from the current
// question. At most one hint per question, and only before any option has
// been eliminated.
func (s *Session) UseHint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.paused || s.closed {
		return false
	}
	if s.hints <= 0 || len(s.eliminated) > 0 {
		return false
	}

	q := s.questions[s.current]
	for idx := range q.Options {
		if idx == q.CorrectIndex {
			continue
		}
		s.eliminated = append(s.eliminated, idx)
		if len(s.eliminated) == 2 {
			break
		}
	}
	s.hints--
	if s.isEliminatedLocked(s.focused) {
		s.focused = q.CorrectIndex
	}
	s.logger.Debug().Int("question", s.current).Ints("eliminated", s.eliminated).Msg("hint used")
	if s.events.OnHintUsed != nil {
		s.events.OnHintUsed()
	}
	return true
}

// TogglePause freezes or resumes the countdown. It is a no-op once an
// outcome for the current question is pending or the session is terminal.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.closed {
		return
	}
	s.paused = !s.paused
	if s.paused {
		s.stopTimersLocked()
	} else {
		s.armTickLocked()
	}
	s.logger.Debug().Bool("paused", s.paused).Msg("pause toggled")
}

// Close tears the session down: all pending timers are canceled and no
// further callback or input can mutate state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimersLocked()
	s.logger.Debug().Str("state", s.state.String()).Msg("quiz session closed")
}

func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.paused || s.state != StateAnswering {
		return
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		// Timer expiry and an explicit wrong answer share one path.
		s.resolveLocked(false)
		return
	}
	s.armTickLocked()
}

// resolveLocked commits the single scoring outcome for the current
// question and schedules the feedback-delayed follow-up transition.
func (s *Session) resolveLocked(correct bool) {
	s.stopTimersLocked()
	s.state = StateFeedback

	if correct {
		bonus := int(math.Floor(float64(s.timeLeft) * constants.QuizTimeBonusFactor))
		s.score += constants.QuizBaseScore + bonus
		s.feedback = FeedbackCorrect
		s.logger.Debug().Int("question", s.current).Int("score", s.score).Msg("correct answer")
	} else {
		s.mistakes++
		s.health--
		s.feedback = FeedbackWrong
		s.logger.Debug().Int("question", s.current).Int("health", s.health).Msg("wrong answer")
		if s.events.OnHealthLost != nil {
			s.events.OnHealthLost()
		}
	}

	if !correct && s.health <= 0 {
		// Out of lives: fail after the feedback beat, never advance.
		s.delayTimer = s.clk.AfterFunc(constants.FeedbackDelay, s.fail)
		return
	}
	s.delayTimer = s.clk.AfterFunc(constants.FeedbackDelay, s.beginTransition)
}

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateFeedback {
		return
	}
	s.state = StateFailed
	s.logger.Info().Int("score", s.score).Int("mistakes", s.mistakes).Msg("quiz session failed")
	if s.events.OnGameOver != nil {
		s.events.OnGameOver(s.score)
	}
}

func (s *Session) beginTransition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateFeedback {
		return
	}
	s.state = StateTransitioning
	s.delayTimer = s.clk.AfterFunc(constants.TransitionDelay, s.advance)
}

func (s *Session) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateTransitioning {
		return
	}

	if s.current+1 >= len(s.questions) {
		s.state = StateComplete
		stars := StarsForMistakes(s.mistakes)
		s.logger.Info().Int("score", s.score).Int("stars", stars).Msg("quiz session complete")
		if s.events.OnComplete != nil {
			s.events.OnComplete(s.score, stars)
		}
		return
	}

	s.current++
	s.timeLeft = constants.QuizTimePerQuestion
	s.feedback = FeedbackNone
	s.eliminated = nil
	s.focused = 0
	s.state = StateAnswering
	s.armTickLocked()
}

func (s *Session) armTickLocked() {
	if s.tickTimer != nil {
		s.tickTimer.Stop()
	}
	s.tickTimer = s.clk.AfterFunc(time.Second, s.tick)
}

func (s *Session) stopTimersLocked() {
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
	if s.delayTimer != nil {
		s.delayTimer.Stop()
		s.delayTimer = nil
	}
}

func (s *Session) isEliminatedLocked(idx int) bool {
	for _, e := range s.eliminated {
		if e == idx {
			return true
		}
	}
	return false
}

// StarsForMistakes maps total mistakes in a run to the star award.
func StarsForMistakes(mistakes int) int {
	switch mistakes {
	case 0:
		return 3
	case 1:
		return 2
	default:
		return 1
	}
}
