package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/taskrun/internal/plan"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	tailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tailBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
)

// tailPaneLines is how many output lines the tail pane shows.
const tailPaneLines = 8

// Run executes the plan inside the full-screen dashboard and returns the
// process exit code. Quitting mid-plan kills the in-flight step's
// process and waits for the runner goroutine before returning, so no
// supervised command outlives the dashboard.
func Run(ctx context.Context, p *plan.Plan) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, p)
	program := tea.NewProgram(m, tea.WithContext(ctx))
	finalModel, err := program.Run()

	cancel()
	for range m.updates {
	}

	if err != nil {
		return 1, err
	}
	return finalModel.(model).exitCode(), nil
}

type model struct {
	plan    *plan.Plan
	states  []*StepState
	updates <-chan StepUpdate
	spinner spinner.Model
	width   int
	done    bool
}

func newModel(ctx context.Context, p *plan.Plan) model {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(runningStyle))
	states, updates := startPlan(ctx, p)
	return model{plan: p, states: states, updates: updates, spinner: sp, width: 80}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenUpdates())
}

type stepUpdateMsg StepUpdate
type planDoneMsg struct{}

func (m model) listenUpdates() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return planDoneMsg{}
		}
		return stepUpdateMsg(update)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter":
			if m.done {
				return m, tea.Quit
			}
		case "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepUpdateMsg:
		return m, m.listenUpdates()
	case planDoneMsg:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	name := m.plan.Name
	if name == "" {
		name = "plan"
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(cases.Title(language.English).String(name)))
	b.WriteString("\n\n")

	var active *StepState
	for _, state := range m.states {
		b.WriteString("  ")
		b.WriteString(m.stepLine(state))
		b.WriteString("\n")
		if status := state.Status(); status == StepRunning || (active == nil && status == StepFailed) {
			active = state
		}
	}

	if active != nil {
		b.WriteString("\n")
		b.WriteString(tailBoxStyle.Width(m.width - 4).Render(m.tailPane(active)))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("press q to quit"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) stepLine(state *StepState) string {
	label := state.Spec.Label
	switch state.Status() {
	case StepPending:
		return pendingStyle.Render("• " + label)
	case StepRunning:
		return m.spinner.View() + " " + label + pendingStyle.Render(" "+formatDuration(state.Duration()))
	case StepSuccess:
		return successStyle.Render("✓ "+label) + pendingStyle.Render(" "+formatDuration(state.Duration()))
	case StepFailed:
		return failStyle.Render(fmt.Sprintf("✗ %s (exit %d)", label, state.ExitCode()))
	case StepSkipped:
		return skippedStyle.Render("- " + label)
	}
	return label
}

func (m model) tailPane(state *StepState) string {
	tail := state.Tail()
	if len(tail) > tailPaneLines {
		tail = tail[len(tail)-tailPaneLines:]
	}
	if len(tail) == 0 {
		return tailStyle.Render("(no output yet)")
	}
	for i, line := range tail {
		tail[i] = tailStyle.Render(line)
	}
	return strings.Join(tail, "\n")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Round(100*time.Millisecond).Seconds())
}

func (m model) exitCode() int {
	for _, state := range m.states {
		if state.Status() == StepFailed && !state.Spec.AllowFailure {
			return 1
		}
	}
	return 0
}
