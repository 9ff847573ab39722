package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValueDecodeYAML(t *testing.T) {
	var patch StatUpdate
	err := yaml.Unmarshal([]byte(`
cashChange: 2000
incomeChange: 10%
portfolioValueChange: -0.5
portfolioContribution: "250"
debtChange: ~
`), &patch)
	require.NoError(t, err)

	n, ok := patch.CashChange.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 2000.0, n)

	s, ok := patch.IncomeChange.AsText()
	assert.True(t, ok)
	assert.Equal(t, "10%", s)

	n, ok = patch.PortfolioValueChange.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, -0.5, n)

	// Quoted numbers stay strings
	s, ok = patch.PortfolioContribution.AsText()
	assert.True(t, ok)
	assert.Equal(t, "250", s)

	assert.False(t, patch.DebtChange.IsSet())
	assert.False(t, patch.PortfolioGrowthRate.IsSet())

	err = yaml.Unmarshal([]byte("cashChange: {amount: 1}"), &patch)
	assert.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	patch := StatUpdate{
		CashChange:   Text("portfolioValueChange:50%"),
		IncomeChange: Num(1500),
	}

	b, err := json.Marshal(patch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cashChange":"portfolioValueChange:50%","incomeChange":1500}`, string(b))

	var decoded StatUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"cashChange":-300,"debtChange":"5%","incomeChange":null}`), &decoded))
	n, ok := decoded.CashChange.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, -300.0, n)
	assert.Equal(t, "5%", decoded.DebtChange.String())
	assert.False(t, decoded.IncomeChange.IsSet())

	assert.Error(t, json.Unmarshal([]byte(`{"cashChange":true}`), &decoded))
}

func TestSceneRecordConversion(t *testing.T) {
	threshold := 60.0

	tests := []struct {
		name   string
		record SceneRecord
		want   SceneType
	}{
		{"decision", SceneRecord{ID: "d", Type: SceneDecision, Choices: []Choice{{Text: "a", TargetSceneID: "o"}}}, SceneDecision},
		{"outcome", SceneRecord{ID: "o", Type: SceneOutcome, Outcome: &StatUpdate{CashChange: Num(1)}, NextSceneID: "i"}, SceneOutcome},
		{"event", SceneRecord{ID: "e", Type: SceneEvent, NextSceneID: "i"}, SceneEvent},
		{"insight", SceneRecord{ID: "i", Type: SceneInsight, Summary: "Save early.", NextSceneID: "ending_selector"}, SceneInsight},
		{"ending", SceneRecord{ID: "x", Type: SceneEnding, ScoreThreshold: &threshold, QualitativeSummary: "Done."}, SceneEnding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := tt.record.Scene()
			require.NoError(t, err)
			assert.Equal(t, tt.want, scene.Type())
			assert.Equal(t, tt.record.ID, scene.SceneID())

			back, err := RecordOf(scene).Scene()
			require.NoError(t, err)
			assert.Equal(t, scene, back)
		})
	}

	_, err := SceneRecord{ID: "z", Type: "cutscene"}.Scene()
	assert.Error(t, err)
	_, err = SceneRecord{Type: SceneEnding}.Scene()
	assert.Error(t, err)
}

func TestSceneRecordVariants(t *testing.T) {
	scene, err := SceneRecord{ID: "e", Type: SceneEvent}.Scene()
	require.NoError(t, err)
	event := scene.(*EventScene)
	assert.False(t, event.Patch.CashChange.IsSet())

	scene, err = SceneRecord{ID: "i", Type: SceneInsight}.Scene()
	require.NoError(t, err)
	assert.Nil(t, scene.(*InsightScene).Patch)

	rec := RecordOf(&EndingScene{SceneHeader: SceneHeader{ID: "x"}, ScoreThreshold: 75})
	require.NotNil(t, rec.ScoreThreshold)
	assert.Equal(t, 75.0, *rec.ScoreThreshold)
}

func TestGameStateClone(t *testing.T) {
	state := GameState{
		CurrentLevel:     1,
		PlayerStats:      NewPlayerStats(LevelInitialStats{Cash: 100}),
		History:          []string{"a"},
		FinancialHistory: []FinancialSnapshot{{SceneID: "a"}},
		DecisionScores:   []float64{50},
	}
	state.PlayerStats.QualitativeNotes = []string{"first"}

	clone := state.Clone()
	clone.History[0] = "b"
	clone.DecisionScores[0] = 10
	clone.FinancialHistory[0].SceneID = "b"
	clone.PlayerStats.QualitativeNotes[0] = "changed"
	clone.PlayerStats.QualitativeNotes = append(clone.PlayerStats.QualitativeNotes, "second")

	assert.Equal(t, "a", state.History[0])
	assert.Equal(t, 50.0, state.DecisionScores[0])
	assert.Equal(t, "a", state.FinancialHistory[0].SceneID)
	assert.Equal(t, []string{"first"}, state.PlayerStats.QualitativeNotes)
}

func TestNewPlayerStats(t *testing.T) {
	ps := NewPlayerStats(LevelInitialStats{Cash: 1000, Debt: 400, PortfolioValue: 600, WellBeing: 7, Age: 30})

	assert.Equal(t, 1200.0, ps.NetWorth)
	assert.Equal(t, 600.0, ps.PortfolioInvestedAmount)
	assert.Equal(t, 7, ps.WellBeing)
	assert.NotNil(t, ps.QualitativeNotes)
	assert.Zero(t, ps.TotalReturnPercentage)

	snap := SnapshotOf(ps, "start")
	assert.Equal(t, "start", snap.SceneID)
	assert.Equal(t, 1200.0, snap.NetWorth)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1234.50", Money(1234.5))
	assert.Equal(t, "-$20.00", Money(-20))
	assert.Equal(t, "$0.00", Money(0))
}
