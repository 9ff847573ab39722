package types

// StepResult is what every game command returns to the presentation layer
type StepResult struct {
	// State is a copy of the session after the command
	State GameState

	// Scene is the resolved current scene, nil outside of a level
	Scene Scene

	// Warning carries a recoverable failure that left state unchanged
	Warning error
}

// LevelSummary describes a level for the level selection screen
type LevelSummary struct {
	Number       int               `json:"number"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	SceneCount   int               `json:"sceneCount"`
	EndingCount  int               `json:"endingCount"`
	InitialStats LevelInitialStats `json:"initialStats"`
}
