// Package tui shows a live progress view while a blocking solve runs.
package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/viz"
)

var ErrInterrupted = errors.New("tui: interrupted before the solve finished")

// SolveFunc performs the blocking solve.
type SolveFunc func() (*bvp.Result, error)

type tickMsg time.Time

type doneMsg struct {
	res *bvp.Result
	err error
}

type model struct {
	title  string
	styles viz.Styles
	solve  SolveFunc

	frame   int
	start   time.Time
	elapsed time.Duration

	done        bool
	interrupted bool
	res         *bvp.Result
	err         error
}

func newModel(title string, theme viz.Theme, solve SolveFunc) model {
	return model{
		title:  title,
		styles: viz.NewStyles(theme),
		solve:  solve,
		start:  time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) run() tea.Cmd {
	return func() tea.Msg {
		res, err := m.solve()
		return doneMsg{res: res, err: err}
	}
}

func (m model) Init() tea.Cmd { return tea.Batch(m.run(), tick()) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.interrupted = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Time(msg).Sub(m.start)
		return m, tick()
	case doneMsg:
		m.done = true
		m.res, m.err = msg.res, msg.err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		status := m.styles.StatusOK.Render("done")
		if m.err != nil || (m.res != nil && !m.res.Success) {
			status = m.styles.StatusFail.Render("finished without convergence")
		}
		return fmt.Sprintf("%s %s %s\n", status, m.styles.Title.Render(m.title), m.styles.Subtle.Render(m.elapsed.Round(time.Millisecond).String()))
	}
	if m.interrupted {
		return m.styles.StatusFail.Render("interrupted") + "\n"
	}
	return fmt.Sprintf("%s solving %s %s\n%s\n",
		m.styles.Value.Render(viz.AnimatedSpinner(m.frame)),
		m.styles.Title.Render(m.title),
		m.styles.Subtle.Render(m.elapsed.Round(100*time.Millisecond).String()),
		m.styles.KeyHint.Render("q to abort"),
	)
}

// Run shows the progress view until solve returns. Aborting the view returns
// ErrInterrupted; the solve itself cannot be cancelled and is abandoned.
func Run(title string, theme viz.Theme, solve SolveFunc, opts ...tea.ProgramOption) (*bvp.Result, error) {
	final, err := tea.NewProgram(newModel(title, theme, solve), opts...).Run()
	if err != nil {
		return nil, err
	}
	m := final.(model)
	if !m.done {
		return nil, ErrInterrupted
	}
	return m.res, m.err
}
