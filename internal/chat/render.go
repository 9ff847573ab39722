package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// RenderResult renders a command result as a chat reply
func RenderResult(res types.StepResult) string {
	var parts []string
	if res.Warning != nil {
		parts = append(parts, warningText(res))
	}

	switch {
	case res.State.ShowLevelSelect:
		parts = append(parts, "Pick a level with */start <n>*.")
	case res.Scene == nil:
		parts = append(parts, "Welcome to *Financial Mind Maze*! Send */start* to begin or */levels* to pick a level.")
	default:
		parts = append(parts, RenderScene(res.Scene))
		if notes := res.State.PlayerStats.QualitativeNotes; len(notes) > 0 && changedStats(res.Scene) {
			parts = append(parts, "📝 "+notes[len(notes)-1])
		}
	}

	return strings.Join(parts, "\n\n")
}

// RenderScene renders a scene and the command that moves on from it
func RenderScene(scene types.Scene) string {
	h := scene.Header()

	var b strings.Builder
	if h.Title != "" {
		fmt.Fprintf(&b, "*%s*\n", h.Title)
	}
	if h.Description != "" {
		b.WriteString(h.Description)
		b.WriteString("\n")
	}

	switch sc := scene.(type) {
	case *types.DecisionScene:
		b.WriteString("\n")
		for i, c := range sc.Choices {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Text)
			if c.Details != nil && c.Details.RiskLevel != "" {
				fmt.Fprintf(&b, "   risk: %s\n", c.Details.RiskLevel)
			}
		}
		b.WriteString("\nReply with */choose <n>*.")
	case *types.OutcomeScene:
		b.WriteString("\nSend */next* to continue.")
	case *types.EventScene:
		b.WriteString("\n⚡ Something happened. Send */next* to continue.")
	case *types.InsightScene:
		if sc.RealWorldExample != "" {
			fmt.Fprintf(&b, "\n🌍 %s\n", sc.RealWorldExample)
		}
		if sc.Summary != "" {
			fmt.Fprintf(&b, "💡 %s\n", sc.Summary)
		}
		b.WriteString("\nSend */next* to continue.")
	case *types.EndingScene:
		if sc.QualitativeSummary != "" {
			fmt.Fprintf(&b, "\n%s\n", sc.QualitativeSummary)
		}
		b.WriteString("\n🏁 Level complete! Send */next* for the next level.")
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderStats renders the headline numbers of a session
func RenderStats(state types.GameState) string {
	ps := state.PlayerStats
	var b strings.Builder
	if state.CurrentLevel > 0 {
		fmt.Fprintf(&b, "📊 *Level %d*\n", state.CurrentLevel)
	} else {
		b.WriteString("📊 *Your finances*\n")
	}
	fmt.Fprintf(&b, "Net worth: %s\n", types.Money(ps.NetWorth))
	fmt.Fprintf(&b, "Cash: %s\n", types.Money(ps.Cash))
	fmt.Fprintf(&b, "Debt: %s\n", types.Money(ps.Debt))
	fmt.Fprintf(&b, "Income: %s/yr\n", types.Money(ps.Income))
	fmt.Fprintf(&b, "Portfolio: %s (%.1f%% return)\n", types.Money(ps.PortfolioValue), ps.TotalReturnPercentage)
	fmt.Fprintf(&b, "Well-being: %d/10\n", ps.WellBeing)
	fmt.Fprintf(&b, "Age: %g", ps.Age)
	if len(state.DecisionScores) > 0 {
		fmt.Fprintf(&b, "\nAverage score: %g", state.AverageScore)
	}
	return b.String()
}

// RenderLevels renders the level selection list
func RenderLevels(levels []types.LevelSummary) string {
	if len(levels) == 0 {
		return "No levels are available right now."
	}

	var b strings.Builder
	b.WriteString("🗺️ *Levels*\n")
	for _, l := range levels {
		fmt.Fprintf(&b, "\n*%d. %s*", l.Number, l.Title)
		if l.Description != "" {
			fmt.Fprintf(&b, "\n%s", l.Description)
		}
		fmt.Fprintf(&b, "\nStarting cash %s, age %g\n", types.Money(l.InitialStats.Cash), l.InitialStats.Age)
	}
	b.WriteString("\nSend */start <n>* to play.")
	return b.String()
}

func changedStats(scene types.Scene) bool {
	switch scene.(type) {
	case *types.OutcomeScene, *types.EventScene, *types.InsightScene:
		return true
	default:
		return false
	}
}

func warningText(res types.StepResult) string {
	err := res.Warning
	switch {
	case errors.Is(err, game.ErrNotProgressible):
		if _, ok := res.Scene.(*types.DecisionScene); ok {
			return "⚠️ Pick an option with */choose <n>* first."
		}
		return "⚠️ There is nothing to continue right now."
	case errors.Is(err, game.ErrLevelNotFound):
		return "⚠️ That level does not exist. Starting level 1 instead."
	case errors.Is(err, game.ErrSceneNotFound):
		return "⚠️ That path is not available. You stay where you are."
	default:
		return "⚠️ " + err.Error()
	}
}
