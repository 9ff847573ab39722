package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/interfaces"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

type model struct {
	gm        interfaces.GameManager
	state     types.GameState
	scene     types.Scene
	textInput textinput.Model
	viewport  viewport.Model
	gameLog   string
	err       error
	width     int
	height    int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87D787"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

const helpLine = "Enter a number to choose, Enter to continue, 'levels', 'start <n>', 'reset' or 'quit'."

// NewModel creates the terminal UI for one game session
func NewModel(gm interfaces.GameManager) model {
	ti := textinput.New()
	ti.Placeholder = "Press Enter to begin..."
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 40

	m := model{
		gm:        gm,
		state:     gm.State(),
		textInput: ti,
		viewport:  viewport.New(80, 20),
	}
	m.scene, m.err = gm.CurrentScene()
	m.gameLog = m.renderWelcome()
	m.viewport.SetContent(m.gameLog)
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type stepMsg struct {
	res  types.StepResult
	note string
	err  error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(strings.ToLower(m.textInput.Value()))
			m.textInput.Reset()
			if input == "quit" || input == "q" {
				return m, tea.Quit
			}
			if input != "" {
				m.gameLog += "\n\n" + userStyle.Width(m.logWidth()).Render("> "+input)
			}
			return m, m.submit(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 6
		m.viewport.SetContent(m.gameLog)

	case stepMsg:
		m.applyStep(msg)
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	logView := m.viewport.View()
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, logView, m.renderState())

	s := lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		"\n"+m.textInput.View(),
		"\n"+helpStyle.Render(helpLine),
	)
	return "\n" + s + "\n"
}

// submit maps one line of input to a game command
func (m model) submit(input string) tea.Cmd {
	gm := m.gm
	scene := m.scene

	run := func(f func(ctx context.Context) (types.StepResult, error)) tea.Cmd {
		return func() tea.Msg {
			res, err := f(context.Background())
			return stepMsg{res: res, err: err}
		}
	}
	note := func(text string) tea.Cmd {
		return func() tea.Msg {
			return stepMsg{res: types.StepResult{State: gm.State(), Scene: scene}, note: text}
		}
	}

	name, arg, _ := strings.Cut(input, " ")
	switch name {
	case "", "next", "n":
		if scene == nil {
			return run(func(ctx context.Context) (types.StepResult, error) {
				return gm.StartGame(ctx, 1)
			})
		}
		return run(gm.HandleNext)
	case "levels", "l":
		return run(func(ctx context.Context) (types.StepResult, error) {
			return gm.StartGame(ctx, game.LevelSelectSentinel)
		})
	case "start", "s":
		level := 1
		if arg != "" {
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				return note("Level must be a number.")
			}
			level = n
		}
		return run(func(ctx context.Context) (types.StepResult, error) {
			return gm.StartGame(ctx, level)
		})
	case "reset":
		return run(gm.ResetGame)
	}

	n, err := strconv.Atoi(name)
	if err != nil {
		return note("Unknown command.")
	}
	decision, ok := scene.(*types.DecisionScene)
	if !ok {
		return note("There is nothing to choose right now.")
	}
	if n < 1 || n > len(decision.Choices) {
		return note(fmt.Sprintf("Pick an option between 1 and %d.", len(decision.Choices)))
	}
	target := decision.Choices[n-1].TargetSceneID
	return run(func(ctx context.Context) (types.StepResult, error) {
		return gm.MakeChoice(ctx, target)
	})
}

func (m *model) applyStep(msg stepMsg) {
	if msg.err != nil {
		m.err = msg.err
		m.gameLog += "\n\n" + warnStyle.Render("Error: "+msg.err.Error())
		m.refresh()
		return
	}

	before := len(m.state.PlayerStats.QualitativeNotes)
	m.state = msg.res.State
	m.scene = msg.res.Scene
	m.err = nil

	var parts []string
	if msg.note != "" {
		parts = append(parts, warnStyle.Render(msg.note))
	}
	if msg.res.Warning != nil {
		parts = append(parts, warnStyle.Render(warningText(msg.res)))
	}
	if msg.note == "" {
		parts = append(parts, m.renderCurrent())
		for _, n := range newNotes(m.state.PlayerStats.QualitativeNotes, before) {
			parts = append(parts, noteStyle.Width(m.logWidth()).Render("• "+n))
		}
	}

	m.gameLog += "\n\n" + strings.Join(parts, "\n\n")
	m.refresh()
}

func (m *model) refresh() {
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) renderWelcome() string {
	header := titleStyle.Render("FINANCIAL MIND MAZE")
	if m.scene != nil {
		return header + "\n\n" + m.renderCurrent()
	}
	return header + "\n\n" + gameStyle.Width(m.logWidth()).Render(
		"Make money decisions, live with the outcomes. Press Enter to start level 1 or type 'levels'.")
}

func (m model) renderCurrent() string {
	switch {
	case m.state.ShowLevelSelect:
		return m.renderLevels()
	case m.scene == nil:
		return gameStyle.Render("You are at the beginning. Press Enter or type 'start <n>'.")
	}
	return renderScene(m.scene, m.logWidth())
}

func (m model) renderLevels() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LEVELS"))
	for _, l := range m.gm.LevelSummaries() {
		fmt.Fprintf(&b, "\n%d. %s", l.Number, l.Title)
		if l.Description != "" {
			b.WriteString(" - " + l.Description)
		}
	}
	b.WriteString("\n\nType 'start <n>' to play.")
	return b.String()
}

func renderScene(scene types.Scene, width int) string {
	h := scene.Header()

	var b strings.Builder
	if h.Title != "" {
		b.WriteString(gameStyle.Bold(true).Render(h.Title))
		b.WriteString("\n")
	}
	if h.Description != "" {
		b.WriteString(gameStyle.Width(width).Render(h.Description))
		b.WriteString("\n")
	}

	switch sc := scene.(type) {
	case *types.DecisionScene:
		for i, c := range sc.Choices {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, c.Text)
			if c.Details != nil && c.Details.RiskLevel != "" {
				b.WriteString(helpStyle.Render(" (risk: " + c.Details.RiskLevel + ")"))
			}
		}
	case *types.InsightScene:
		if sc.RealWorldExample != "" {
			b.WriteString("\n" + gameStyle.Width(width).Render(sc.RealWorldExample) + "\n")
		}
		if sc.Summary != "" {
			b.WriteString("\n" + noteStyle.Width(width).Render(sc.Summary))
		}
	case *types.EndingScene:
		if sc.QualitativeSummary != "" {
			b.WriteString("\n" + gameStyle.Width(width).Render(sc.QualitativeSummary) + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("Level complete. Press Enter for the next level."))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) renderState() string {
	ps := m.state.PlayerStats

	level := "Intro"
	if m.state.ShowLevelSelect {
		level = "Level select"
	} else if m.state.CurrentLevel > 0 {
		level = fmt.Sprintf("Level %d", m.state.CurrentLevel)
	}

	content := titleStyle.Render("LEVEL") + "\n" + level + "\n\n" +
		titleStyle.Render("FINANCES") + "\n" +
		fmt.Sprintf("Net worth: %s\nCash: %s\nDebt: %s\nIncome: %s\n\n",
			types.Money(ps.NetWorth), types.Money(ps.Cash), types.Money(ps.Debt), types.Money(ps.Income)) +
		titleStyle.Render("PORTFOLIO") + "\n" +
		fmt.Sprintf("Value: %s\nInvested: %s\nReturn: %.1f%%\n\n",
			types.Money(ps.PortfolioValue), types.Money(ps.PortfolioInvestedAmount), ps.TotalReturnPercentage) +
		titleStyle.Render("YOU") + "\n" +
		fmt.Sprintf("Well-being: %d/10\nAge: %g\n", ps.WellBeing, ps.Age)

	if len(m.state.DecisionScores) > 0 {
		content += fmt.Sprintf("Score: %g\n", m.state.AverageScore)
	}

	stateWidth := int(float64(m.width) * 0.23)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

func (m model) logWidth() int {
	if m.width == 0 {
		return 80
	}
	return int(float64(m.width) * 0.75)
}

func warningText(res types.StepResult) string {
	switch {
	case errors.Is(res.Warning, game.ErrNotProgressible):
		if _, ok := res.Scene.(*types.DecisionScene); ok {
			return "Pick an option first."
		}
		return "There is nothing to continue. Type 'start' or 'levels'."
	case errors.Is(res.Warning, game.ErrLevelNotFound):
		return "That level does not exist. Starting level 1 instead."
	case errors.Is(res.Warning, game.ErrSceneNotFound):
		return "That path is not available."
	default:
		return res.Warning.Error()
	}
}

// newNotes returns the notes appended after the first before entries. A
// level change resets the list, in which case there is nothing new.
func newNotes(notes []string, before int) []string {
	if before > len(notes) {
		return nil
	}
	return notes[before:]
}

// Run plays gm in the terminal until the player quits
func Run(gm interfaces.GameManager) error {
	p := tea.NewProgram(NewModel(gm), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
