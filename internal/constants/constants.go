package constants

import "time"

const (
	QuizTimePerQuestion = 15 // seconds on the clock per question
	QuizBaseScore       = 10
	QuizTimeBonusFactor = 0.5 // score += floor(secondsLeft * factor)

	FeedbackDelay   = 1000 * time.Millisecond
	TransitionDelay = 800 * time.Millisecond
)

const (
	Star3Multiplier = 1.5
	Star2Multiplier = 1.2

	FirstClearBonus      = 50
	StageCompletionBonus = 200
)

const (
	InitialHealth = 3
	MaxHealth     = 3

	ShopPotionCost = 100
	ShopHintCost   = 150
	ShopMaxPotions = 5
	ShopMaxHints   = 5
)

const (
	SideQuestLives             = 3
	SideQuestInitialDistance   = 100
	SideQuestDistanceDecrement = 2
	SideQuestDistanceGain      = 15
	SideQuestDistanceLoss      = 20
	SideQuestDangerThreshold   = 10
	SideQuestXPReward          = 300
	SideQuestWinDelay          = 1500 * time.Millisecond
)

const (
	StorageBatchDelay = 500 * time.Millisecond

	SyncBatchDelay       = 2 * time.Second
	SyncCacheTTL         = 30 * time.Second
	SyncMaxRetries       = 3
	SyncRetryBaseBackoff = 1 * time.Second

	LeaderboardCacheTTL      = 30 * time.Second
	LeaderboardRealtimeDelay = 5 * time.Second
	LeaderboardTopLimit      = 10
)

const (
	RemoteTimeout   = 10 * time.Second
	DatabaseTimeout = 5 * time.Second
	ShutdownTimeout = 5 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	PlayerNameMinLen = 3
	PlayerNameMaxLen = 20
)
