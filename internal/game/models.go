package game

import "github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"

// Aliases so adapters can work with the engine package alone
type (
	GameState         = types.GameState
	PlayerStats       = types.PlayerStats
	StatUpdate        = types.StatUpdate
	Scene             = types.Scene
	FinancialSnapshot = types.FinancialSnapshot
	LevelInitialStats = types.LevelInitialStats
	StepResult        = types.StepResult
	LevelSummary      = types.LevelSummary
)

const (
	// LevelSelectSentinel switches the session to level selection
	LevelSelectSentinel = -1

	// IntroLevel is where a reset lands: baseline stats and no scene yet
	IntroLevel = 0
)
