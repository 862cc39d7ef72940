package domain

import "sofinlearn/internal/constants"

// Ledger is the canonical per-player progression record. It is the single
// source of truth; the leaderboard only ever receives a snapshot derived
// from it. The JSON shape doubles as the persisted document and the
// export/import format.
type Ledger struct {
	CurrentStage        int            `json:"currentStage"`
	CurrentLevel        int            `json:"currentLevel"`
	CompletedLevels     []int          `json:"completedLevels"`
	CompletedStages     []int          `json:"completedStages"`
	CompletedSideQuests []int          `json:"completedSideQuests"`
	LevelScores         map[int]int    `json:"levelScores"`
	LevelStars          map[int]int    `json:"levelStars"`
	TotalScore          int            `json:"totalScore"`
	XP                  int            `json:"xp"`
	Health              int            `json:"health"`
	MaxHealth           int            `json:"maxHealth"`
	HealthPotions       int            `json:"healthPotions"`
	Hints               int            `json:"hints"`
	Cosmetics           Cosmetics      `json:"cosmetics"`
}

func NewLedger() *Ledger {
	return &Ledger{
		CurrentStage:        1,
		CurrentLevel:        0,
		CompletedLevels:     []int{},
		CompletedStages:     []int{},
		CompletedSideQuests: []int{},
		LevelScores:         map[int]int{},
		LevelStars:          map[int]int{},
		TotalScore:          0,
		XP:                  0,
		Health:              constants.InitialHealth,
		MaxHealth:           constants.MaxHealth,
		HealthPotions:       0,
		Hints:               0,
		Cosmetics:           DefaultCosmetics(),
	}
}

// Clone returns a deep copy. Mutating operations work on a copy and swap
// it in only after persistence has been attempted, so a half-applied
// operation can never be observed.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.CompletedLevels = append([]int{}, l.CompletedLevels...)
	c.CompletedStages = append([]int{}, l.CompletedStages...)
	c.CompletedSideQuests = append([]int{}, l.CompletedSideQuests...)
	c.LevelScores = make(map[int]int, len(l.LevelScores))
	for k, v := range l.LevelScores {
		c.LevelScores[k] = v
	}
	c.LevelStars = make(map[int]int, len(l.LevelStars))
	for k, v := range l.LevelStars {
		c.LevelStars[k] = v
	}
	c.Cosmetics.OwnedItems = append([]string{}, l.Cosmetics.OwnedItems...)
	return &c
}

func (l *Ledger) HasCompletedLevel(id int) bool { return containsInt(l.CompletedLevels, id) }

func (l *Ledger) HasCompletedStage(id int) bool { return containsInt(l.CompletedStages, id) }

func (l *Ledger) HasCompletedSideQuest(id int) bool { return containsInt(l.CompletedSideQuests, id) }

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Question is one entry of an external question bank. Options are already
// shuffled at the bank level per call; the session shuffles them again and
// remaps CorrectIndex.
type Question struct {
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionProvider is the external content bank lookup.
type QuestionProvider func(topic, language string) ([]Question, error)

// LeaderboardEntry is one row of the shared remote table, keyed by player
// name. The client never owns this row; it only proposes upserts.
type LeaderboardEntry struct {
	PlayerName string `json:"player_name"`
	TotalScore int    `json:"total_score"`
	Badge      string `json:"badge"`
	Frame      string `json:"frame"`
	NameEffect string `json:"name_effect"`
}

// Settings is the global settings document, shared across identities.
type Settings struct {
	Language string `json:"language"`
	MusicOn  bool   `json:"musicOn"`
}

func DefaultSettings() Settings {
	return Settings{Language: "en", MusicOn: true}
}
