package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

const (
	margin    = 40.0
	rowHeight = 14.0
	maxNotes  = 12
)

// Input is everything the report draws
type Input struct {
	LevelTitle string
	State      types.GameState
	Ending     *types.EndingScene
}

// Generate renders a one-page financial summary of a session as PDF
func Generate(in Input) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*margin

	pdf.SetTextColor(20, 40, 70)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 24, "Financial Mind Maze", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	subtitle := fmt.Sprintf("Level %d", in.State.CurrentLevel)
	if in.LevelTitle != "" {
		subtitle += ": " + in.LevelTitle
	}
	pdf.CellFormat(contentW, 16, subtitle, "", 1, "L", false, 0, "")

	if in.Ending != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(contentW, 18, "Ending: "+in.Ending.Title, "", 1, "L", false, 0, "")
		if in.Ending.QualitativeSummary != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.MultiCell(contentW, rowHeight, in.Ending.QualitativeSummary, "", "L", false)
		}
	}
	pdf.Ln(8)

	drawStats(pdf, contentW, in.State)
	pdf.Ln(10)
	drawChart(pdf, contentW, in.State.FinancialHistory, in.State.PlayerStats.NetWorth)
	pdf.Ln(10)
	drawHistory(pdf, contentW, in.State.FinancialHistory)
	drawNotes(pdf, contentW, in.State.PlayerStats.QualitativeNotes)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func drawStats(pdf *gofpdf.Fpdf, width float64, state types.GameState) {
	ps := state.PlayerStats
	rows := [][2]string{
		{"Net worth", types.Money(ps.NetWorth)},
		{"Cash", types.Money(ps.Cash)},
		{"Debt", types.Money(ps.Debt)},
		{"Income", types.Money(ps.Income)},
		{"Portfolio value", types.Money(ps.PortfolioValue)},
		{"Invested amount", types.Money(ps.PortfolioInvestedAmount)},
		{"Realized gain", types.Money(ps.RealizedGain)},
		{"Unrealized gain", types.Money(ps.UnrealizedGain)},
		{"Total return", fmt.Sprintf("%.1f%%", ps.TotalReturnPercentage)},
		{"Well-being", fmt.Sprintf("%d / 10", ps.WellBeing)},
		{"Age", strconv.FormatFloat(ps.Age, 'f', -1, 64)},
		{"Average decision score", strconv.FormatFloat(state.AverageScore, 'f', -1, 64)},
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 40, 70)
	pdf.CellFormat(width, 18, "Current position", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFillColor(235, 240, 248)
	for i, row := range rows {
		fill := i%2 == 0
		pdf.CellFormat(width/2, rowHeight, row[0], "", 0, "L", fill, 0, "")
		pdf.CellFormat(width/2, rowHeight, row[1], "", 1, "R", fill, 0, "")
	}
}

// drawChart plots net worth across the snapshot log, ending at the current value
func drawChart(pdf *gofpdf.Fpdf, width float64, history []types.FinancialSnapshot, current float64) {
	points := make([]float64, 0, len(history)+1)
	for _, s := range history {
		points = append(points, s.NetWorth)
	}
	points = append(points, current)
	if len(points) < 2 {
		return
	}

	lo, hi := points[0], points[0]
	for _, p := range points {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if hi == lo {
		hi = lo + 1
	}

	const height = 120.0
	x0, y0 := pdf.GetX(), pdf.GetY()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 40, 70)
	pdf.CellFormat(width, 18, "Net worth over time", "", 1, "L", false, 0, "")
	y0 += 18

	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.5)
	pdf.Rect(x0, y0, width, height, "D")

	pdf.SetDrawColor(30, 110, 60)
	pdf.SetLineWidth(1.5)
	step := width / float64(len(points)-1)
	yOf := func(v float64) float64 { return y0 + height - (v-lo)/(hi-lo)*height }
	for i := 1; i < len(points); i++ {
		pdf.Line(x0+step*float64(i-1), yOf(points[i-1]), x0+step*float64(i), yOf(points[i]))
	}
	pdf.SetLineWidth(1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(x0, y0)
	pdf.CellFormat(width, 10, types.Money(hi), "", 0, "L", false, 0, "")
	pdf.SetXY(x0, y0+height-10)
	pdf.CellFormat(width, 10, types.Money(lo), "", 0, "L", false, 0, "")
	pdf.SetXY(x0, y0+height+4)
}

func drawHistory(pdf *gofpdf.Fpdf, width float64, history []types.FinancialSnapshot) {
	if len(history) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 40, 70)
	pdf.CellFormat(width, 18, "Financial history", "", 1, "L", false, 0, "")

	cols := []struct {
		title string
		w     float64
	}{
		{"Scene", 0.28}, {"Cash", 0.14}, {"Debt", 0.14}, {"Portfolio", 0.16}, {"Net worth", 0.16}, {"Return", 0.12},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(20, 40, 70)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		pdf.CellFormat(width*c.w, rowHeight, c.title, "", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)
	for _, s := range history {
		values := []string{
			s.SceneID,
			types.Money(s.Cash),
			types.Money(s.Debt),
			types.Money(s.PortfolioValue),
			types.Money(s.NetWorth),
			fmt.Sprintf("%.1f%%", s.TotalReturnPercentage),
		}
		for i, v := range values {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(width*cols[i].w, rowHeight, v, "B", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(8)
}

func drawNotes(pdf *gofpdf.Fpdf, width float64, notes []string) {
	if len(notes) == 0 {
		return
	}
	if len(notes) > maxNotes {
		notes = notes[len(notes)-maxNotes:]
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 40, 70)
	pdf.CellFormat(width, 18, "Recent notes", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)
	for _, n := range notes {
		pdf.MultiCell(width, 12, "- "+n, "", "L", false)
	}
}
