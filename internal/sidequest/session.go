package sidequest

import (
	"math/rand"
	"sofinlearn/internal/clock"
	"sofinlearn/internal/constants"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// A side quest is a chase: the player types each challenge before the
// pursuer closes the distance. Distance decays every second, drops on a
// wrong or timed-out answer, and recovers on a correct one. Clearing every
// challenge escapes; running out of lives or distance gets caught.
type State int

const (
	StateRunning State = iota
	StateCaught
	StateEscaped
)

type Challenge struct {
	Code string
	Time int // seconds allowed
}

var stageChallenges = map[int][]Challenge{
	1: {
		{Code: `const x = 10;`, Time: 15},
		{Code: `console.log("Hello");`, Time: 15},
		{Code: `let sum = a + b;`, Time: 15},
		{Code: `return true;`, Time: 12},
		{Code: `if (x > 0) {}`, Time: 15},
	},
	2: {
		{Code: `arr.map(x => x * 2)`, Time: 18},
		{Code: `async function getData()`, Time: 18},
		{Code: `const {name} = obj;`, Time: 16},
		{Code: `Promise.all([p1, p2])`, Time: 18},
		{Code: `[...arr1, ...arr2]`, Time: 16},
	},
	3: {
		{Code: `interface User {}`, Time: 20},
		{Code: `type Props = {}`, Time: 18},
		{Code: `const App: FC = () => {}`, Time: 22},
		{Code: `useEffect(() => {}, [])`, Time: 20},
		{Code: `docker build -t app .`, Time: 20},
	},
}

type Events struct {
	// OnComplete fires after the win delay with the fixed XP reward.
	OnComplete func(xpEarned int)
	OnCaught   func()
}

type Config struct {
	Stage  int
	Clock  clock.Clock
	Logger zerolog.Logger
	Events Events
	Rand   *rand.Rand
}

type Session struct {
	id     string
	stage  int
	clk    clock.Clock
	logger zerolog.Logger
	events Events

	mu         sync.Mutex
	state      State
	closed     bool
	challenges []Challenge
	current    int
	lives      int
	timeLeft   int
	distance   int

	tickTimer clock.Timer
	winTimer  clock.Timer
}

func NewSession(cfg Config) *Session {
	base, ok := stageChallenges[cfg.Stage]
	if !ok {
		base = stageChallenges[1]
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	challenges := make([]Challenge, len(base))
	copy(challenges, base)
	rng.Shuffle(len(challenges), func(i, j int) {
		challenges[i], challenges[j] = challenges[j], challenges[i]
	})

	id := uuid.New().String()
	s := &Session{
		id:         id,
		stage:      cfg.Stage,
		clk:        cfg.Clock,
		logger:     cfg.Logger.With().Str("session_id", id).Int("stage", cfg.Stage).Logger(),
		events:     cfg.Events,
		state:      StateRunning,
		challenges: challenges,
		lives:      constants.SideQuestLives,
		timeLeft:   challenges[0].Time,
		distance:   constants.SideQuestInitialDistance,
	}
	s.logger.Info().Int("challenges", len(challenges)).Msg("side quest session created")
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateRunning {
		return
	}
	s.armTickLocked()
}

// Submit checks the typed input against the current challenge. Exact match
// required.
func (s *Session) Submit(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateRunning {
		return
	}

	if input != s.challenges[s.current].Code {
		s.loseLifeLocked()
		return
	}

	s.distance += constants.SideQuestDistanceGain
	if s.distance > constants.SideQuestInitialDistance {
		s.distance = constants.SideQuestInitialDistance
	}

	if s.current+1 >= len(s.challenges) {
		s.state = StateEscaped
		s.stopTimersLocked()
		s.logger.Info().Msg("side quest escaped")
		s.winTimer = s.clk.AfterFunc(constants.SideQuestWinDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return
			}
			if s.events.OnComplete != nil {
				s.events.OnComplete(constants.SideQuestXPReward)
			}
		})
		return
	}

	s.current++
	s.timeLeft = s.challenges[s.current].Time
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimersLocked()
}

func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateRunning {
		return
	}

	s.timeLeft--
	s.distance -= constants.SideQuestDistanceDecrement
	if s.distance <= constants.SideQuestDangerThreshold {
		s.caughtLocked()
		return
	}
	if s.timeLeft <= 0 {
		// A timeout is a wrong answer.
		s.loseLifeLocked()
		if s.state != StateRunning {
			return
		}
	}
	s.armTickLocked()
}

func (s *Session) loseLifeLocked() {
	s.lives--
	s.distance -= constants.SideQuestDistanceLoss
	if s.distance < constants.SideQuestDangerThreshold {
		s.distance = constants.SideQuestDangerThreshold
	}
	s.logger.Debug().Int("lives", s.lives).Int("distance", s.distance).Msg("side quest life lost")

	if s.lives <= 0 || s.distance <= constants.SideQuestDangerThreshold {
		s.caughtLocked()
		return
	}
	s.timeLeft = s.challenges[s.current].Time
}

func (s *Session) caughtLocked() {
	s.state = StateCaught
	s.stopTimersLocked()
	s.logger.Info().Int("challenge", s.current).Msg("side quest caught")
	if s.events.OnCaught != nil {
		s.events.OnCaught()
	}
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
	if s.winTimer != nil {
		s.winTimer.Stop()
		s.winTimer = nil
	}
}

// View is a read-only snapshot for the presentation shell.
type View struct {
	State     State
	Challenge Challenge
	Index     int
	Total     int
	Lives     int
	TimeLeft  int
	Distance  int
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		State:     s.state,
		Challenge: s.challenges[s.current],
		Index:     s.current,
		Total:     len(s.challenges),
		Lives:     s.lives,
		TimeLeft:  s.timeLeft,
		Distance:  s.distance,
	}
}
