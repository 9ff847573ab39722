package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/session"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

func score(v float64) *float64 { return &v }

func newTestProcessor(t *testing.T) (*Processor, *session.Registry) {
	t.Helper()
	levels := game.Levels{
		1: game.NewLevel(1, "First Paycheck", "Your first job", types.LevelInitialStats{Cash: 5000, Age: 22}, []types.Scene{
			&types.DecisionScene{
				SceneHeader: types.SceneHeader{ID: "start", Title: "Payday", Description: "Money arrived."},
				Choices: []types.Choice{
					{Text: "Save it", TargetSceneID: "saved", Score: score(80),
						Details: &types.ChoiceDetails{RiskLevel: "low"}},
					{Text: "Lose it", TargetSceneID: "missing"},
				},
			},
			&types.OutcomeScene{
				SceneHeader:   types.SceneHeader{ID: "saved", Title: "Saved"},
				Patch:         types.StatUpdate{CashChange: types.Num(500)},
				TargetSceneID: game.EndingSelectorID,
			},
			&types.EndingScene{
				SceneHeader:        types.SceneHeader{ID: "end", Title: "The End"},
				QualitativeSummary: "Nicely done.",
			},
		}),
	}
	reg := session.NewRegistry(kv.NewMemoryStore(), levels, config.DefaultConfig().Game, nil)
	return NewProcessor(reg, nil), reg
}

func TestProcessHelpAndUnknown(t *testing.T) {
	p, _ := newTestProcessor(t)
	ctx := context.Background()

	assert.Contains(t, p.Process(ctx, "5511", "/help"), "*/choose <n>*")
	assert.Contains(t, p.Process(ctx, "5511", "  /HELP "), "FINANCIAL MIND MAZE")
	assert.Contains(t, p.Process(ctx, "5511", "hello"), "Commands start with '/'")
	assert.Contains(t, p.Process(ctx, "5511", "/dance"), "Unknown command")
}

func TestProcessPlaythrough(t *testing.T) {
	p, reg := newTestProcessor(t)
	ctx := context.Background()

	// Test case 1: welcome before a level starts
	reply := p.Process(ctx, "5511", "/status")
	assert.Contains(t, reply, "Net worth: $5000.00")

	// Test case 2: start shows the first decision
	reply = p.Process(ctx, "5511", "/start")
	assert.Contains(t, reply, "*Payday*")
	assert.Contains(t, reply, "1. Save it")
	assert.Contains(t, reply, "risk: low")
	assert.Contains(t, reply, "2. Lose it")

	// Test case 3: next on a decision is refused
	reply = p.Process(ctx, "5511", "/next")
	assert.Contains(t, reply, "Pick an option")

	// Test case 4: out of range choice
	reply = p.Process(ctx, "5511", "/choose 7")
	assert.Contains(t, reply, "between 1 and 2")

	// Test case 5: broken path keeps the player in place
	reply = p.Process(ctx, "5511", "/choose 2")
	assert.Contains(t, reply, "not available")
	assert.Contains(t, reply, "*Payday*")

	// Test case 6: a real choice applies the outcome
	reply = p.Process(ctx, "5511", "/choose 1")
	assert.Contains(t, reply, "*Saved*")
	assert.Contains(t, reply, "Added $500.00 to cash.")

	reply = p.Process(ctx, "5511", "/choose 1")
	assert.Contains(t, reply, "nothing to choose")

	// Test case 7: the ending selector lands on the only ending
	reply = p.Process(ctx, "5511", "/next")
	assert.Contains(t, reply, "*The End*")
	assert.Contains(t, reply, "Nicely done.")

	gm, err := reg.Get(ctx, "5511")
	require.NoError(t, err)
	assert.True(t, gm.State().Completed)
	assert.Equal(t, 5500.0, gm.State().PlayerStats.Cash)

	reply = p.Process(ctx, "5511", "/status")
	assert.Contains(t, reply, "Average score: 80")
}

func TestProcessLevelsAndReset(t *testing.T) {
	p, reg := newTestProcessor(t)
	ctx := context.Background()

	reply := p.Process(ctx, "5511", "/levels")
	assert.Contains(t, reply, "*1. First Paycheck*")
	assert.Contains(t, reply, "Starting cash $5000.00, age 22")

	gm, err := reg.Get(ctx, "5511")
	require.NoError(t, err)
	assert.True(t, gm.State().ShowLevelSelect)

	assert.Contains(t, p.Process(ctx, "5511", "/start two"), "Level must be a number")
	assert.Contains(t, p.Process(ctx, "5511", "/start 5"), "That level does not exist")

	reply = p.Process(ctx, "5511", "/reset")
	assert.Contains(t, reply, "Welcome to *Financial Mind Maze*")
	assert.Equal(t, game.IntroLevel, gm.State().CurrentLevel)

	assert.Contains(t, p.Process(ctx, "5511", "/next"), "nothing to continue")
}

func TestProcessSendersAreIsolated(t *testing.T) {
	p, reg := newTestProcessor(t)
	ctx := context.Background()

	p.Process(ctx, "alice", "/start")
	p.Process(ctx, "alice", "/choose 1")
	p.Process(ctx, "bob", "/start")

	alice, _ := reg.Get(ctx, "alice")
	bob, _ := reg.Get(ctx, "bob")
	assert.Equal(t, "saved", alice.State().CurrentSceneID)
	assert.Equal(t, "start", bob.State().CurrentSceneID)
}

func TestRenderResultWarnings(t *testing.T) {
	reply := RenderResult(types.StepResult{Warning: errors.New("boom")})
	assert.Contains(t, reply, "⚠️ boom")

	reply = RenderResult(types.StepResult{State: types.GameState{ShowLevelSelect: true}})
	assert.Contains(t, reply, "*/start <n>*")
}

func TestRenderLevelsEmpty(t *testing.T) {
	assert.Equal(t, "No levels are available right now.", RenderLevels(nil))
}
