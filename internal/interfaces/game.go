package interfaces

import (
	"context"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// MessageSender defines the interface for sending messages
type MessageSender interface {
	SendMessage(recipient, message string) error
}

// GameManager defines the interface for game operations
type GameManager interface {
	State() types.GameState
	CurrentScene() (types.Scene, error)
	LevelSummaries() []types.LevelSummary
	StartGame(ctx context.Context, level int) (types.StepResult, error)
	ResetGame(ctx context.Context) (types.StepResult, error)
	MakeChoice(ctx context.Context, targetSceneID string) (types.StepResult, error)
	AdvanceToScene(ctx context.Context, targetSceneID string) (types.StepResult, error)
	HandleNext(ctx context.Context) (types.StepResult, error)
}

// SessionRegistry hands out one GameManager per player session
type SessionRegistry interface {
	Create(ctx context.Context) (string, GameManager, error)
	Get(ctx context.Context, id string) (GameManager, error)
	GetOrCreate(ctx context.Context, id string) (GameManager, error)
}
