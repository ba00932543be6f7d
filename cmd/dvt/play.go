package main

import (
	"context"
	"fmt"
	"strings"

	cl "devtycoon/internal/cli"
	"devtycoon/internal/econ"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func newPlayCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Live dashboard: watch ticks and play in real time",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			client := newClient(apiBase)
			states, err := client.StreamStates(ctx, sess.AccessToken)
			if err != nil {
				return err
			}

			model := newPlayModel(ctx, client, sess.AccessToken, states)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
}

type stateMsg econ.State

type streamClosedMsg struct{}

type actionResultMsg struct {
	action string
	resp   cl.ActionResponse
	err    error
}

type playModel struct {
	ctx     context.Context
	client  *cl.Client
	token   string
	states  <-chan econ.State
	spin    spinner.Model
	state   econ.State
	ready   bool
	status  string
	pending string
	closed  bool
}

func newPlayModel(ctx context.Context, client *cl.Client, token string, states <-chan econ.State) playModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return playModel{
		ctx:    ctx,
		client: client,
		token:  token,
		states: states,
		spin:   sp,
	}
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForState(m.states))
}

func waitForState(ch <-chan econ.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m playModel) submit(action string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Action(m.ctx, m.token, action, "")
		return actionResultMsg{action: action, resp: resp, err: err}
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "h":
			m.pending = "hire"
			return m, m.submit("hire")
		case "t":
			m.pending = "train"
			return m, m.submit("train")
		case "p":
			m.pending = "start_project"
			return m, m.submit("start_project")
		case "s":
			m.pending = "sprint"
			return m, m.submit("sprint")
		case "r":
			m.pending = "release"
			return m, m.submit("release")
		case "m":
			m.pending = "marketing"
			return m, m.submit("marketing")
		}
		return m, nil

	case stateMsg:
		m.state = econ.State(msg)
		m.ready = true
		return m, waitForState(m.states)

	case streamClosedMsg:
		m.closed = true
		m.status = "stream closed"
		return m, tea.Quit

	case actionResultMsg:
		m.pending = ""
		switch {
		case msg.err != nil:
			m.status = badStyle.Render(fmt.Sprintf("%s failed: %v", msg.action, msg.err))
		case !msg.resp.Outcome.Applied:
			m.status = badStyle.Render(fmt.Sprintf("%s rejected: %s", msg.action, msg.resp.Outcome.Reason))
		case msg.resp.Outcome.Released != nil:
			rel := msg.resp.Outcome.Released
			m.status = goodStyle.Render(fmt.Sprintf("shipped %s (quality %d/10)", rel.Name, rel.Quality))
		default:
			m.status = goodStyle.Render(msg.action + " applied")
		}
		// The stream will deliver the committed state momentarily; show
		// the action's view of it right away.
		m.state = msg.resp.State
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m playModel) View() string {
	if !m.ready {
		return fmt.Sprintf("\n  %s connecting...\n", m.spin.View())
	}

	st := m.state
	var b strings.Builder

	b.WriteString(titleStyle.Render("DEVTYCOON"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("money ") + statStyle.Render(formatMoney(st.Money)))
	b.WriteString(labelStyle.Render("   fans ") + statStyle.Render(comma(st.Fans)))
	b.WriteString(labelStyle.Render("   rep ") + statStyle.Render(fmt.Sprintf("%d/10", st.Reputation)))
	b.WriteString(labelStyle.Render("   team ") + statStyle.Render(fmt.Sprintf("%d", st.Employees)))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Projects"))
	b.WriteString("\n")
	if len(st.Projects) == 0 {
		b.WriteString(labelStyle.Render("  none in development"))
		b.WriteString("\n")
	} else {
		for _, p := range st.Projects {
			bar := progressBar(p.Progress)
			line := fmt.Sprintf("  %-24s %s %3d%%  bugs %d", truncate(p.Name, 24), bar, p.Progress, p.Bugs)
			if p.Progress >= econ.ReleasableProgress {
				line = goodStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Released"))
	b.WriteString("\n")
	if len(st.Released) == 0 {
		b.WriteString(labelStyle.Render("  nothing shipped yet"))
		b.WriteString("\n")
	} else {
		for _, rel := range st.Released {
			b.WriteString(fmt.Sprintf("  %-24s q%d  %s/tick\n", truncate(rel.Name, 24), rel.Quality, formatMoney(rel.BaseRevenue)))
		}
	}
	b.WriteString("\n")

	if m.pending != "" {
		b.WriteString(m.spin.View() + " " + m.pending + "\n")
	} else if m.status != "" {
		b.WriteString(m.status + "\n")
	}

	b.WriteString(helpStyle.Render("\nh hire  t train  p project  s sprint  r release  m marketing  q quit"))

	return panelStyle.Render(b.String()) + "\n"
}

func progressBar(progress int) string {
	const width = 20
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
