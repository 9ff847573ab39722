package game

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// DefaultStateKey is the key a single-player session is stored under
const DefaultStateKey = "financialMindMazeGameState"

// SessionStateKey returns the storage key for a named session
func SessionStateKey(sessionID string) string {
	return DefaultStateKey + ":" + sessionID
}

// GameStateStorage handles persistence of game state
type GameStateStorage struct {
	store kv.Store
	key   string
}

// NewGameStateStorage creates a storage bound to one key of store
func NewGameStateStorage(store kv.Store, key string) *GameStateStorage {
	if key == "" {
		key = DefaultStateKey
	}
	return &GameStateStorage{store: store, key: key}
}

// Key returns the key state is stored under
func (gss *GameStateStorage) Key() string {
	return gss.key
}

// SaveGameState writes the JSON form of state
func (gss *GameStateStorage) SaveGameState(ctx context.Context, state *types.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err := gss.store.Set(ctx, gss.key, string(data)); err != nil {
		return fmt.Errorf("failed to write game state: %w", err)
	}
	return nil
}

// LoadGameState reads the stored state. It returns (nil, nil) when nothing is
// stored and ErrInvalidState when the stored value cannot be used.
func (gss *GameStateStorage) LoadGameState(ctx context.Context) (*types.GameState, error) {
	raw, ok, err := gss.store.Get(ctx, gss.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read game state: %w", err)
	}
	if !ok {
		return nil, nil
	}

	// Decode loosely first so a missing playerStats object can be told
	// apart from one with all-zero fields.
	var loose struct {
		CurrentSceneID string          `json:"currentSceneId"`
		PlayerStats    json.RawMessage `json:"playerStats"`
	}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if loose.CurrentSceneID == "" {
		return nil, fmt.Errorf("%w: missing currentSceneId", ErrInvalidState)
	}
	if len(loose.PlayerStats) == 0 || string(loose.PlayerStats) == "null" || loose.PlayerStats[0] != '{' {
		return nil, fmt.Errorf("%w: missing playerStats", ErrInvalidState)
	}

	var state types.GameState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.PlayerStats.QualitativeNotes == nil {
		state.PlayerStats.QualitativeNotes = []string{}
	}
	if state.History == nil {
		state.History = []string{}
	}
	if state.FinancialHistory == nil {
		state.FinancialHistory = []types.FinancialSnapshot{}
	}
	if state.DecisionScores == nil {
		state.DecisionScores = []float64{}
	}

	return &state, nil
}

// ClearGameState removes the stored state
func (gss *GameStateStorage) ClearGameState(ctx context.Context) error {
	if err := gss.store.Remove(ctx, gss.key); err != nil {
		return fmt.Errorf("failed to clear game state: %w", err)
	}
	return nil
}
