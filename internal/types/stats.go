package types

// PlayerStats represents the financial and emotional state of the player
type PlayerStats struct {
	Cash                    float64  `json:"cash"`
	Debt                    float64  `json:"debt"`
	NetWorth                float64  `json:"netWorth"`
	Income                  float64  `json:"income"`
	WellBeing               int      `json:"wellBeing"`
	Age                     float64  `json:"age"`
	QualitativeNotes        []string `json:"qualitativeNotes"`
	PortfolioValue          float64  `json:"portfolioValue"`
	PortfolioContribution   float64  `json:"portfolioContribution"`
	PortfolioGrowthRate     float64  `json:"portfolioGrowthRate"`
	PortfolioInvestedAmount float64  `json:"portfolioInvestedAmount"`
	RealizedGain            float64  `json:"realizedGain"`
	UnrealizedGain          float64  `json:"unrealizedGain"`
	TotalReturnPercentage   float64  `json:"totalReturnPercentage"`
	TotalValueRealized      float64  `json:"totalValueRealized"`
}

// Clone returns a copy that does not share the notes slice
func (ps PlayerStats) Clone() PlayerStats {
	out := ps
	out.QualitativeNotes = append(make([]string, 0, len(ps.QualitativeNotes)+2), ps.QualitativeNotes...)
	return out
}

// LevelInitialStats is the baseline a level starts (or restarts) from
type LevelInitialStats struct {
	Cash                  float64 `json:"cash" yaml:"cash"`
	Debt                  float64 `json:"debt" yaml:"debt"`
	Income                float64 `json:"income" yaml:"income"`
	WellBeing             int     `json:"wellBeing" yaml:"wellBeing"`
	Age                   float64 `json:"age" yaml:"age"`
	PortfolioValue        float64 `json:"portfolioValue" yaml:"portfolioValue"`
	PortfolioContribution float64 `json:"portfolioContribution" yaml:"portfolioContribution"`
	PortfolioGrowthRate   float64 `json:"portfolioGrowthRate" yaml:"portfolioGrowthRate"`
}

// NewPlayerStats builds fresh stats from a level baseline. The starting
// portfolio is treated as fully invested principal.
func NewPlayerStats(base LevelInitialStats) PlayerStats {
	return PlayerStats{
		Cash:                    base.Cash,
		Debt:                    base.Debt,
		NetWorth:                base.Cash + base.PortfolioValue - base.Debt,
		Income:                  base.Income,
		WellBeing:               base.WellBeing,
		Age:                     base.Age,
		QualitativeNotes:        []string{},
		PortfolioValue:          base.PortfolioValue,
		PortfolioContribution:   base.PortfolioContribution,
		PortfolioGrowthRate:     base.PortfolioGrowthRate,
		PortfolioInvestedAmount: base.PortfolioValue,
	}
}

// StatUpdate is a declarative patch applied to PlayerStats. Every field is
// optional.
type StatUpdate struct {
	CashChange            Value   `json:"cashChange,omitzero" yaml:"cashChange,omitempty"`
	DebtChange            Value   `json:"debtChange,omitzero" yaml:"debtChange,omitempty"`
	IncomeChange          Value   `json:"incomeChange,omitzero" yaml:"incomeChange,omitempty"`
	WellBeingChange       *int    `json:"wellBeingChange,omitempty" yaml:"wellBeingChange,omitempty"`
	AgeChange             float64 `json:"ageChange,omitempty" yaml:"ageChange,omitempty"`
	PortfolioContribution Value   `json:"portfolioContribution,omitzero" yaml:"portfolioContribution,omitempty"`
	PortfolioGrowthRate   Value   `json:"portfolioGrowthRate,omitzero" yaml:"portfolioGrowthRate,omitempty"`
	PortfolioValueChange  Value   `json:"portfolioValueChange,omitzero" yaml:"portfolioValueChange,omitempty"`
	ROIPotential          string  `json:"roiPotential,omitempty" yaml:"roiPotential,omitempty"` // low | moderate | high
	QualitativeNote       string  `json:"qualitativeNote,omitempty" yaml:"qualitativeNote,omitempty"`
}

// FinancialSnapshot is one entry of the per-transition financial log
type FinancialSnapshot struct {
	SceneID               string  `json:"sceneId"`
	Cash                  float64 `json:"cash"`
	Debt                  float64 `json:"debt"`
	NetWorth              float64 `json:"netWorth"`
	Income                float64 `json:"income"`
	PortfolioValue        float64 `json:"portfolioValue"`
	RealizedGain          float64 `json:"realizedGain"`
	UnrealizedGain        float64 `json:"unrealizedGain"`
	TotalReturnPercentage float64 `json:"totalReturnPercentage"`
	TotalValueRealized    float64 `json:"totalValueRealized"`
}

// SnapshotOf captures the financial fields of stats, tagged with sceneID
func SnapshotOf(ps PlayerStats, sceneID string) FinancialSnapshot {
	return FinancialSnapshot{
		SceneID:               sceneID,
		Cash:                  ps.Cash,
		Debt:                  ps.Debt,
		NetWorth:              ps.NetWorth,
		Income:                ps.Income,
		PortfolioValue:        ps.PortfolioValue,
		RealizedGain:          ps.RealizedGain,
		UnrealizedGain:        ps.UnrealizedGain,
		TotalReturnPercentage: ps.TotalReturnPercentage,
		TotalValueRealized:    ps.TotalValueRealized,
	}
}
