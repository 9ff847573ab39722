package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/interfaces"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// Processor turns chat commands into game commands. Each sender gets its own
// session.
type Processor struct {
	sessions interfaces.SessionRegistry
	logger   *zap.Logger
}

// NewProcessor creates a command processor over sessions
func NewProcessor(sessions interfaces.SessionRegistry, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{sessions: sessions, logger: logger}
}

// Process handles one message from sender and returns the reply
func (p *Processor) Process(ctx context.Context, sender, message string) string {
	command := cleanCommand(message)
	if !strings.HasPrefix(command, "/") {
		return "Commands start with '/'. Send */help* to see what you can do."
	}
	command = strings.TrimPrefix(command, "/")

	name, arg, _ := strings.Cut(command, " ")
	arg = strings.TrimSpace(arg)

	if name == "help" || name == "ajuda" {
		return helpText()
	}

	gm, err := p.sessions.GetOrCreate(ctx, sender)
	if err != nil {
		p.logger.Error("Failed to open session",
			zap.String("sender", sender),
			zap.Error(err))
		return "Something went wrong opening your game. Please try again."
	}

	p.logger.Debug("Processing command",
		zap.String("sender", sender),
		zap.String("command", name),
		zap.String("arg", arg))

	switch name {
	case "levels":
		return p.handleLevelsCommand(ctx, gm)
	case "start":
		return p.handleStartCommand(ctx, gm, arg)
	case "choose", "c":
		return p.handleChooseCommand(ctx, gm, arg)
	case "next", "n":
		return p.reply(gm.HandleNext(ctx))
	case "reset":
		return p.reply(gm.ResetGame(ctx))
	case "status":
		return p.handleStatusCommand(gm)
	default:
		return "Unknown command. Send */help* to see what you can do."
	}
}

func (p *Processor) handleLevelsCommand(ctx context.Context, gm interfaces.GameManager) string {
	if _, err := gm.StartGame(ctx, game.LevelSelectSentinel); err != nil {
		p.logger.Error("Failed to open level selection", zap.Error(err))
	}
	return RenderLevels(gm.LevelSummaries())
}

func (p *Processor) handleStartCommand(ctx context.Context, gm interfaces.GameManager, arg string) string {
	level := 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return "Level must be a number. Send */levels* to see the list."
		}
		level = n
	}
	return p.reply(gm.StartGame(ctx, level))
}

func (p *Processor) handleChooseCommand(ctx context.Context, gm interfaces.GameManager, arg string) string {
	scene, err := gm.CurrentScene()
	if err != nil {
		return p.reply(types.StepResult{State: gm.State(), Warning: err}, nil)
	}
	decision, ok := scene.(*types.DecisionScene)
	if !ok {
		return "There is nothing to choose right now. Send */next* to continue."
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(decision.Choices) {
		return fmt.Sprintf("Pick an option between 1 and %d, e.g. */choose 1*.", len(decision.Choices))
	}
	return p.reply(gm.MakeChoice(ctx, decision.Choices[n-1].TargetSceneID))
}

func (p *Processor) handleStatusCommand(gm interfaces.GameManager) string {
	state := gm.State()
	scene, err := gm.CurrentScene()
	if err != nil {
		p.logger.Warn("Current scene unavailable", zap.Error(err))
	}

	var b strings.Builder
	b.WriteString(RenderStats(state))
	if scene != nil {
		b.WriteString("\n\n")
		b.WriteString(RenderScene(scene))
	}
	return b.String()
}

// reply renders a command result. Only the unrecoverable error is logged
// here; soft failures were logged by the engine.
func (p *Processor) reply(res types.StepResult, err error) string {
	if err != nil {
		p.logger.Error("Game command failed", zap.Error(err))
		if errors.Is(err, game.ErrNoPlayableLevel) {
			return "No levels are available right now. 😱"
		}
		return "Something went wrong. Please try again."
	}
	return RenderResult(res)
}

// cleanCommand normalizes a command string
func cleanCommand(command string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	return strings.Join(strings.Fields(command), " ")
}

func helpText() string {
	return "*FINANCIAL MIND MAZE* 💰\n\n" +
		"*/levels* - list the levels\n" +
		"*/start [n]* - start level n (default 1)\n" +
		"*/choose <n>* - pick option n\n" +
		"*/next* - continue the story\n" +
		"*/status* - show your finances\n" +
		"*/reset* - back to the beginning\n" +
		"*/help* - this message"
}
