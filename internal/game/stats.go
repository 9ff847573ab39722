package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// LiquidationMarker prefixes a cashChange value that sells portfolio holdings
// into cash instead of adding a plain amount, e.g. "portfolioValueChange" or
// "portfolioValueChange:25%".
const LiquidationMarker = "portfolioValueChange"

const (
	minWellBeing = -10
	maxWellBeing = 10
)

// ParseChange turns a patch value into an absolute delta. Numbers are taken
// as-is, "N%" strings are N percent of current, and anything else is 0.
func ParseChange(v types.Value, current float64) float64 {
	if n, ok := v.AsNumber(); ok {
		return n
	}
	if s, ok := v.AsText(); ok {
		if pct, ok := parsePercent(s); ok {
			return pct / 100 * current
		}
	}
	return 0
}

// ApplyStatUpdate returns prev with patch applied. The order of the steps is
// significant: time-based accrual uses the income from before the patch, the
// liquidation sentinel and portfolioValueChange are mutually exclusive, and
// age moves last.
func ApplyStatUpdate(prev types.PlayerStats, patch types.StatUpdate) types.PlayerStats {
	next := prev.Clone()

	// Age never goes backwards.
	ageChange := math.Max(patch.AgeChange, 0)

	if patch.PortfolioContribution.IsSet() {
		if s, ok := patch.PortfolioContribution.AsText(); ok && isPercent(s) {
			// A percentage sets the contribution to a share of income.
			if pct, ok := parsePercent(s); ok {
				next.PortfolioContribution = pct / 100 * prev.Income
			}
		} else {
			next.PortfolioContribution += ParseChange(patch.PortfolioContribution, prev.PortfolioContribution)
		}
	}

	if ageChange > 0 {
		next.Cash += next.Income * ageChange

		contribution := next.PortfolioContribution * ageChange
		next.PortfolioValue += contribution
		next.PortfolioInvestedAmount += contribution

		// A rate below -100% wipes the portfolio rather than going negative.
		next.PortfolioValue *= math.Pow(math.Max(1+next.PortfolioGrowthRate, 0), ageChange)
	}

	if patch.IncomeChange.IsSet() {
		next.Income += ParseChange(patch.IncomeChange, prev.Income)
	}

	if rate, ok := growthRate(patch.PortfolioGrowthRate); ok {
		next.PortfolioGrowthRate = rate
	}

	liquidated := false
	if s, ok := patch.CashChange.AsText(); ok && strings.HasPrefix(s, LiquidationMarker) {
		liquidated = true
		liquidate(&next, liquidationPercent(s))
	} else if patch.CashChange.IsSet() {
		delta := ParseChange(patch.CashChange, prev.Cash)
		next.Cash += delta
		switch {
		case delta > 0:
			next.QualitativeNotes = append(next.QualitativeNotes, fmt.Sprintf("Added %s to cash.", money(delta)))
		case delta < 0:
			next.QualitativeNotes = append(next.QualitativeNotes, fmt.Sprintf("Spent %s from cash.", money(-delta)))
		}
	}

	if patch.PortfolioValueChange.IsSet() && !liquidated {
		applyPortfolioChange(&next, prev, patch.PortfolioValueChange)
	}

	next.UnrealizedGain = next.PortfolioValue - next.PortfolioInvestedAmount

	base := next.PortfolioInvestedAmount + next.TotalValueRealized
	if base > 0 {
		next.TotalReturnPercentage = (next.RealizedGain + next.UnrealizedGain) / base * 100
		moved := next.TotalReturnPercentage - prev.TotalReturnPercentage
		if math.Abs(moved) > 1 {
			direction := "increased"
			if moved < 0 {
				direction = "decreased"
			}
			next.QualitativeNotes = append(next.QualitativeNotes,
				fmt.Sprintf("Your total investment return %s to %.1f%%.", direction, next.TotalReturnPercentage))
		}
	} else {
		next.TotalReturnPercentage = 0
	}

	if patch.DebtChange.IsSet() {
		next.Debt += ParseChange(patch.DebtChange, prev.Debt)
	}

	next.NetWorth = next.Cash + next.PortfolioValue - next.Debt

	if patch.WellBeingChange != nil {
		next.WellBeing += *patch.WellBeingChange
	}
	next.WellBeing = clampWellBeing(next.WellBeing)

	if patch.QualitativeNote != "" {
		next.QualitativeNotes = append(next.QualitativeNotes, patch.QualitativeNote)
	}

	next.Age += ageChange

	return next
}

// liquidate sells pct percent of the portfolio into cash, realizing the
// proportional share of the gain or loss.
func liquidate(s *types.PlayerStats, pct float64) {
	amount := s.PortfolioValue * pct / 100
	if amount <= 0 || s.PortfolioValue <= 0 {
		s.QualitativeNotes = append(s.QualitativeNotes, "No portfolio value to liquidate.")
		return
	}

	proportionSold := amount / s.PortfolioValue
	investedSold := s.PortfolioInvestedAmount * proportionSold
	gain := amount - investedSold

	s.RealizedGain += gain
	s.TotalValueRealized += amount
	s.Cash += amount
	s.PortfolioValue -= amount
	s.PortfolioInvestedAmount -= investedSold

	var note string
	if pct == 100 {
		switch {
		case gain > 0:
			note = fmt.Sprintf("Liquidated entire portfolio for a gain of %s. Funds added to cash.", money(gain))
		case gain < 0:
			note = fmt.Sprintf("Liquidated entire portfolio for a loss of %s. Remaining funds added to cash.", money(-gain))
		default:
			note = "Liquidated entire portfolio at breakeven. Funds added to cash."
		}
	} else {
		share := strconv.FormatFloat(pct, 'f', -1, 64)
		switch {
		case gain > 0:
			note = fmt.Sprintf("Liquidated %s%% of portfolio for a gain of %s. %s added to cash.", share, money(gain), money(amount))
		case gain < 0:
			note = fmt.Sprintf("Liquidated %s%% of portfolio for a loss of %s. %s added to cash.", share, money(-gain), money(amount))
		default:
			note = fmt.Sprintf("Liquidated %s%% of portfolio at breakeven. %s added to cash.", share, money(amount))
		}
	}
	s.QualitativeNotes = append(s.QualitativeNotes, note)
}

// applyPortfolioChange handles portfolioValueChange: positive numbers are new
// principal, negative numbers are a proportional sale, and percentages move
// the market value without touching the cost basis.
func applyPortfolioChange(s *types.PlayerStats, prev types.PlayerStats, change types.Value) {
	if n, ok := change.AsNumber(); ok {
		switch {
		case n > 0:
			s.PortfolioValue += n
			s.PortfolioInvestedAmount += n
			s.QualitativeNotes = append(s.QualitativeNotes, fmt.Sprintf("Invested %s in portfolio.", money(n)))
		case n < 0:
			sellHoldings(s, -n)
		}
		return
	}

	delta := ParseChange(change, prev.PortfolioValue)
	before := s.PortfolioValue
	s.PortfolioValue += delta
	if delta == 0 {
		return
	}

	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}
	if before != 0 {
		s.QualitativeNotes = append(s.QualitativeNotes,
			fmt.Sprintf("Portfolio value %s by %s or %.1f%%.", direction, money(math.Abs(delta)), math.Abs(delta)/before*100))
	} else {
		s.QualitativeNotes = append(s.QualitativeNotes,
			fmt.Sprintf("Portfolio value %s by %s.", direction, money(math.Abs(delta))))
	}
}

// sellHoldings removes amount of market value and realizes the gain against
// the matching share of the cost basis.
func sellHoldings(s *types.PlayerStats, amount float64) {
	before := s.PortfolioValue
	s.PortfolioValue -= amount

	proportionSold := 0.0
	if before > 0 {
		proportionSold = amount / before
	}
	investedSold := s.PortfolioInvestedAmount * proportionSold
	s.PortfolioInvestedAmount -= investedSold

	gain := amount - investedSold
	s.RealizedGain += gain
	s.TotalValueRealized += amount

	var note string
	switch {
	case gain > 0:
		note = fmt.Sprintf("Sold portfolio assets worth %s for a gain of %s.", money(amount), money(gain))
	case gain < 0:
		note = fmt.Sprintf("Sold portfolio assets worth %s for a loss of %s.", money(amount), money(-gain))
	default:
		note = fmt.Sprintf("Sold portfolio assets worth %s at breakeven.", money(amount))
	}
	s.QualitativeNotes = append(s.QualitativeNotes, note)
}

// liquidationPercent reads the optional ":N%" suffix of a liquidation
// sentinel. Missing or out-of-range values mean a full liquidation.
func liquidationPercent(s string) float64 {
	_, suffix, found := strings.Cut(s, ":")
	if !found {
		return 100
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(suffix, "%", "")), 64)
	if err != nil || pct <= 0 || pct > 100 {
		return 100
	}
	return pct
}

func isPercent(s string) bool {
	return strings.HasSuffix(strings.TrimSpace(s), "%")
}

func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil || math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false
	}
	return pct, true
}

func clampWellBeing(v int) int {
	if v < minWellBeing {
		return minWellBeing
	}
	if v > maxWellBeing {
		return maxWellBeing
	}
	return v
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// growthRate reads a growth rate given as a fraction or a percentage string
func growthRate(v types.Value) (float64, bool) {
	if rate, ok := v.AsNumber(); ok {
		return rate, true
	}
	if s, ok := v.AsText(); ok {
		if pct, ok := parsePercent(s); ok {
			return pct / 100, true
		}
	}
	return 0, false
}
