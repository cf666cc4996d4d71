// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/ui/styles"
	"github.com/jeranaias/meshbench/internal/util"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ScenarioStartMsg reports that a scenario began.
type ScenarioStartMsg struct {
	Key string
}

// ScenarioDoneMsg reports a finished scenario.
type ScenarioDoneMsg struct {
	Result *benchmark.ScenarioResult
}

// SuiteDoneMsg reports the end of the battery.
type SuiteDoneMsg struct {
	Result *benchmark.SuiteResult
	Err    error
}

// =============================================================================
// SUITE PROGRESS MODEL
// =============================================================================

type progressRow struct {
	key       string
	desc      string
	state     string // pending, running, done, failed
	started   time.Time
	elapsed   time.Duration
	triangles int
}

// SuiteProgress is the Bubble Tea model shown while a suite runs.
type SuiteProgress struct {
	software string
	rows     []progressRow
	index    map[string]int
	done     int

	spinner spinner.Model
	bar     progress.Model
	start   time.Time
	now     func() time.Time

	cancel   context.CancelFunc
	finished bool

	// Result and Err hold the suite outcome once SuiteDoneMsg arrives.
	Result *benchmark.SuiteResult
	Err    error
}

// NewSuiteProgress creates the model for scenarios. cancel is called when
// the user interrupts the run.
func NewSuiteProgress(software string, scenarios []benchmark.Scenario, cancel context.CancelFunc) SuiteProgress {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	m := SuiteProgress{
		software: software,
		index:    make(map[string]int, len(scenarios)),
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		start:    time.Now(),
		now:      time.Now,
		cancel:   cancel,
	}
	for i, sc := range scenarios {
		m.rows = append(m.rows, progressRow{key: sc.Key(), desc: sc.Description, state: "pending"})
		m.index[sc.Key()] = i
	}
	return m
}

// Init starts the spinner.
func (m SuiteProgress) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress messages and key presses.
func (m SuiteProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		w := msg.Width - 20
		if w > 60 {
			w = 60
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case ScenarioStartMsg:
		if i, ok := m.index[msg.Key]; ok {
			m.rows[i].state = "running"
			m.rows[i].started = m.now()
		}
		return m, nil

	case ScenarioDoneMsg:
		if msg.Result != nil {
			if i, ok := m.index[msg.Result.Key]; ok {
				m.rows[i].state = "done"
				m.rows[i].elapsed = msg.Result.Elapsed
				m.rows[i].triangles = msg.Result.NumTriangles
				m.done++
			}
		}
		return m, nil

	case SuiteDoneMsg:
		m.finished = true
		m.Result = msg.Result
		m.Err = msg.Err
		if msg.Err != nil {
			for i := range m.rows {
				if m.rows[i].state == "running" {
					m.rows[i].state = "failed"
				}
			}
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent returns the completed fraction of the battery.
func (m SuiteProgress) Percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	return float64(m.done) / float64(len(m.rows))
}

// View renders the scenario list and the progress bar.
func (m SuiteProgress) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Benchmarking %s", m.software)))
	b.WriteString("\n\n")

	for _, r := range m.rows {
		var icon, detail string
		switch r.state {
		case "done":
			icon = "[OK]"
			detail = fmt.Sprintf("%s  %d triangles", benchmark.FormatDuration(r.elapsed), r.triangles)
		case "running":
			icon = "[" + m.spinner.View() + "] "
			detail = benchmark.FormatDuration(m.now().Sub(r.started))
		case "failed":
			icon = "[X] "
			detail = "failed"
		default:
			icon = "[ ] "
		}
		style := lipgloss.NewStyle().Foreground(styles.Status(r.state))
		b.WriteString(style.Render(util.PadRight(icon, 5)))
		b.WriteString(styles.Key.Render(util.PadRight(r.key, 4)))
		b.WriteString(util.PadRight(util.TruncateWidth(r.desc, 36), 37))
		b.WriteString(styles.Muted.Render(detail))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(fmt.Sprintf("  %d/%d  %s\n", m.done, len(m.rows), benchmark.FormatDuration(m.now().Sub(m.start))))
	if !m.finished {
		b.WriteString(styles.Muted.Render("Press q to cancel"))
		b.WriteString("\n")
	} else if m.Err != nil {
		b.WriteString(RenderError(m.Err))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// RUNNING A SUITE WITH LIVE PROGRESS
// =============================================================================

// RunSuite runs suite while showing SuiteProgress on out. Existing progress
// callbacks on the suite are still called.
func RunSuite(ctx context.Context, suite *benchmark.Suite, out io.Writer) (*benchmark.SuiteResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scenarios := benchmark.GetStandardScenarios(suite.Case, suite.Params)
	model := NewSuiteProgress(suite.Software, scenarios, cancel)
	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))

	onStart, onDone := suite.OnScenarioStart, suite.OnScenarioDone
	suite.OnScenarioStart = func(sc benchmark.Scenario) {
		if onStart != nil {
			onStart(sc)
		}
		p.Send(ScenarioStartMsg{Key: sc.Key()})
	}
	suite.OnScenarioDone = func(r *benchmark.ScenarioResult) {
		if onDone != nil {
			onDone(r)
		}
		p.Send(ScenarioDoneMsg{Result: r})
	}
	defer func() {
		suite.OnScenarioStart, suite.OnScenarioDone = onStart, onDone
	}()

	done := make(chan SuiteDoneMsg, 1)
	go func() {
		r, err := suite.Run(ctx)
		msg := SuiteDoneMsg{Result: r, Err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		res := <-done
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Result, nil
	}
	res := <-done
	return res.Result, res.Err
}
