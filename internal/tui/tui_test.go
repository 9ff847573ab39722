package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

func score(v float64) *float64 { return &v }

func newTestModel(t *testing.T) (model, *game.GameManager) {
	t.Helper()
	levels := game.Levels{
		1: game.NewLevel(1, "First Paycheck", "Your first job", types.LevelInitialStats{Cash: 5000, Age: 22}, []types.Scene{
			&types.DecisionScene{
				SceneHeader: types.SceneHeader{ID: "start", Title: "Payday"},
				Choices:     []types.Choice{{Text: "Save it", TargetSceneID: "saved", Score: score(80)}},
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
	gm := game.NewGameManager(context.Background(), levels, nil, config.DefaultConfig().Game, nil)
	return NewModel(gm), gm
}

// enter types input and presses Enter, running the resulting command
func enter(t *testing.T, m model, input string) model {
	t.Helper()
	m.textInput.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	require.NotNil(t, cmd)

	next, _ = m.Update(cmd())
	return next.(model)
}

func TestModelPlaythrough(t *testing.T) {
	m, gm := newTestModel(t)
	assert.Contains(t, m.gameLog, "FINANCIAL MIND MAZE")
	assert.Nil(t, m.scene)

	// Test case 1: Enter at the intro starts level 1
	m = enter(t, m, "")
	assert.Equal(t, 1, m.state.CurrentLevel)
	require.NotNil(t, m.scene)
	assert.Equal(t, "start", m.scene.SceneID())
	assert.Contains(t, m.gameLog, "1. Save it")

	// Test case 2: out of range choice is refused locally
	m = enter(t, m, "9")
	assert.Contains(t, m.gameLog, "Pick an option between 1 and 1.")
	assert.Equal(t, "start", gm.State().CurrentSceneID)

	// Test case 3: Enter on a decision warns
	m = enter(t, m, "")
	assert.Contains(t, m.gameLog, "Pick an option first.")

	// Test case 4: choosing applies the outcome and shows its note
	m = enter(t, m, "1")
	assert.Equal(t, "saved", m.scene.SceneID())
	assert.Contains(t, m.gameLog, "Added $500.00 to cash.")
	assert.Contains(t, m.View(), "$5500.00")

	// Test case 5: continuing reaches the ending
	m = enter(t, m, "next")
	assert.True(t, m.state.Completed)
	assert.Contains(t, m.gameLog, "Nicely done.")

	// Test case 6: level selection lists the levels
	m = enter(t, m, "levels")
	assert.True(t, m.state.ShowLevelSelect)
	assert.Contains(t, m.gameLog, "1. First Paycheck - Your first job")

	// Test case 7: unknown input
	m = enter(t, m, "dance")
	assert.Contains(t, m.gameLog, "Unknown command.")
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)

	m.textInput.SetValue("quit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelStartFallback(t *testing.T) {
	m, _ := newTestModel(t)

	m = enter(t, m, "start 4")
	assert.Contains(t, m.gameLog, "That level does not exist.")
	assert.Equal(t, 1, m.state.CurrentLevel)

	m = enter(t, m, "start x")
	assert.Contains(t, m.gameLog, "Level must be a number.")

	m = enter(t, m, "reset")
	assert.Equal(t, game.IntroLevel, m.state.CurrentLevel)
	assert.Nil(t, m.scene)
}
