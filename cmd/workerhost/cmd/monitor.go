package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/worker-host/config"
	"github.com/wippyai/worker-host/engine"
	"github.com/wippyai/worker-host/host"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	workerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for the workers in the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("monitor requires a terminal; use 'workerhost run' instead")
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return runMonitor(cfg)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

const feedSize = 12

type workerRow struct {
	id    uint32
	name  string
	alive bool
}

type monitorModel struct {
	host     *host.Host
	workers  []workerRow
	feed     []string
	input    textinput.Model
	selected int
	typing   bool
	err      error
}

type eventMsg struct {
	id  uint32
	msg host.Message
	err error
}

func newMonitorModel(cfg *config.Config) (*monitorModel, []uint32, error) {
	h := host.New(host.Options{
		Factory: engine.NewFactory(),
		Permissions: host.StaticPermissions{
			AllowRead: cfg.AllowRead,
			ReadAll:   cfg.ReadAll,
			Unstable:  cfg.Unstable,
		},
	})

	m := &monitorModel{host: h}
	var ids []uint32
	for _, def := range cfg.Workers {
		id, err := h.CreateWorker(context.Background(), host.CreateWorkerArgs{
			Name:                   def.Name,
			Specifier:              def.Specifier,
			UsePrivilegedNamespace: def.Privileged,
			ImportMap:              def.ImportMap,
		})
		if err != nil {
			for _, prev := range ids {
				h.TerminateWorker(prev)
			}
			return nil, nil, err
		}
		name := def.Name
		if name == "" {
			name = def.Specifier
		}
		m.workers = append(m.workers, workerRow{id: id, name: name, alive: true})
		ids = append(ids, id)
	}

	ti := textinput.New()
	ti.Placeholder = "message payload"
	ti.Prompt = "> "
	ti.Width = 48
	m.input = ti

	return m, ids, nil
}

// waitEvent blocks on the worker's next event; the returned message feeds
// the model and re-arms the subscription while the worker lives.
func (m *monitorModel) waitEvent(id uint32) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.host.GetMessage(context.Background(), id)
		return eventMsg{id: id, msg: msg, err: err}
	}
}

func (m *monitorModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.workers))
	for _, w := range m.workers {
		cmds = append(cmds, m.waitEvent(w.id))
	}
	return tea.Batch(cmds...)
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			switch msg.String() {
			case "enter":
				m.typing = false
				m.input.Blur()
				payload := m.input.Value()
				m.input.SetValue("")
				if w := m.current(); w != nil {
					if err := m.host.PostMessage(w.id, []byte(payload)); err != nil {
						m.push(errorStyle.Render(fmt.Sprintf("[%d] post failed: %v", w.id, err)))
					} else {
						m.push(fmt.Sprintf("[%d] -> %q", w.id, payload))
					}
				}
				return m, nil
			case "esc":
				m.typing = false
				m.input.Blur()
				m.input.SetValue("")
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			for _, w := range m.workers {
				if w.alive {
					m.host.TerminateWorker(w.id)
				}
			}
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.workers)-1 {
				m.selected++
			}

		case "enter":
			if w := m.current(); w != nil && w.alive {
				m.typing = true
				m.input.Focus()
				return m, textinput.Blink
			}

		case "t":
			if w := m.current(); w != nil && w.alive {
				m.host.TerminateWorker(w.id)
				w.alive = false
				m.push(fmt.Sprintf("[%d] terminated", w.id))
			}
		}

	case eventMsg:
		w := m.row(msg.id)
		if msg.err != nil {
			// The worker was reclaimed under us; stop the subscription.
			if w != nil {
				w.alive = false
			}
			return m, nil
		}
		switch msg.msg.Type {
		case host.TypeMsg:
			m.push(eventStyle.Render(fmt.Sprintf("[%d] <- %q", msg.id, msg.msg.Data)))
		case host.TypeError:
			m.push(errorStyle.Render(fmt.Sprintf("[%d] error: %s", msg.id, msg.msg.Error.Message)))
		case host.TypeTerminalError:
			m.push(errorStyle.Render(fmt.Sprintf("[%d] died: %s", msg.id, msg.msg.Error.Message)))
			if w != nil {
				w.alive = false
			}
			return m, nil
		case host.TypeClose:
			m.push(fmt.Sprintf("[%d] completed", msg.id))
			if w != nil {
				w.alive = false
			}
			return m, nil
		}
		return m, m.waitEvent(msg.id)
	}

	return m, nil
}

func (m *monitorModel) current() *workerRow {
	if m.selected < 0 || m.selected >= len(m.workers) {
		return nil
	}
	return &m.workers[m.selected]
}

func (m *monitorModel) row(id uint32) *workerRow {
	for i := range m.workers {
		if m.workers[i].id == id {
			return &m.workers[i]
		}
	}
	return nil
}

func (m *monitorModel) push(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > feedSize {
		m.feed = m.feed[len(m.feed)-feedSize:]
	}
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Worker Host"))
	b.WriteString("\n\n")

	if len(m.workers) == 0 {
		b.WriteString("No workers configured.\n")
	}
	for i, w := range m.workers {
		line := fmt.Sprintf("worker-%d  %s", w.id, w.name)
		switch {
		case !w.alive:
			line = deadStyle.Render(line)
		case i == m.selected:
			line = selectedStyle.Render("> " + line)
		default:
			line = "  " + workerStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, line := range m.feed {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.typing {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter send • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter post • t terminate • q quit"))
	}

	return b.String()
}

func runMonitor(cfg *config.Config) error {
	m, _, err := newMonitorModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
