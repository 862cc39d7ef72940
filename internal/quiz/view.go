package quiz

import "sofinlearn/internal/domain"

// View is a read-only snapshot of the session for the presentation shell.
type View struct {
	State      State
	Paused     bool
	Feedback   Feedback
	Question   domain.Question
	Index      int
	Total      int
	TimeLeft   int
	Score      int
	Mistakes   int
	Health     int
	Hints      int
	Focused    int
	Eliminated []int
}

func (s *Session) ID() string { return s.id }

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:    s.state,
		Paused:   s.paused,
		Feedback: s.feedback,
		Index:    s.current,
		Total:    len(s.questions),
		TimeLeft: s.timeLeft,
		Score:    s.score,
		Mistakes: s.mistakes,
		Health:   s.health,
		Hints:    s.hints,
		Focused:  s.focused,
	}
	if s.current < len(s.questions) {
		v.Question = s.questions[s.current]
	}
	v.Eliminated = append([]int{}, s.eliminated...)
	return v
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Session) Mistakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mistakes
}
