package types

// GameState represents one player's whole session
type GameState struct {
	CurrentLevel     int                 `json:"currentLevel"`
	CurrentSceneID   string              `json:"currentSceneId"`
	PlayerStats      PlayerStats         `json:"playerStats"`
	History          []string            `json:"history"`
	Completed        bool                `json:"completed"`
	ShowLevelSelect  bool                `json:"showLevelSelect"`
	FinancialHistory []FinancialSnapshot `json:"financialHistory"`
	DecisionScores   []float64           `json:"decisionScores"`
	AverageScore     float64             `json:"averageScore"`
}

// Clone returns a deep copy so callers can mutate it freely
func (gs GameState) Clone() GameState {
	out := gs
	out.PlayerStats = gs.PlayerStats.Clone()
	out.History = append([]string{}, gs.History...)
	out.FinancialHistory = append([]FinancialSnapshot{}, gs.FinancialHistory...)
	out.DecisionScores = append([]float64{}, gs.DecisionScores...)
	return out
}
