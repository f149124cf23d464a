package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/d41928/shellherd/internal/model"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultLogLines     = 50
	minStatusPaneWidth  = 28
)

// Dashboard is the bubbletea model for the supervisor UI: a status pane
// on the left, server logs on the top right, captured app logs below.
type Dashboard struct {
	client    *Client
	serverOut *RingBuffer // nil in attach mode
	poll      time.Duration
	logLines  int

	width  int
	height int

	status   *model.Run
	appLines []string
	message  string

	keymap KeyMap
	styles Styles
}

type tickMsg time.Time

type pollMsg struct {
	status *model.Run
	logs   []string
	err    error
}

type killMsg struct {
	sig model.Signal
	err error
}

// NewDashboard creates a dashboard polling the given client. serverOut
// may be nil when attached to an externally started server.
func NewDashboard(client *Client, serverOut *RingBuffer, poll time.Duration, logLines int) *Dashboard {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	if logLines <= 0 {
		logLines = defaultLogLines
	}
	return &Dashboard{
		client:    client,
		serverOut: serverOut,
		poll:      poll,
		logLines:  logLines,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
	}
}

// Run starts the bubbletea program.
func (d *Dashboard) Run() error {
	program := tea.NewProgram(d, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.pollCmd(), d.tickCmd())
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil
	case tickMsg:
		return d, tea.Batch(d.pollCmd(), d.tickCmd())
	case pollMsg:
		if msg.err != nil {
			d.message = "api unreachable: " + msg.err.Error()
			return d, nil
		}
		d.status = msg.status
		d.appLines = msg.logs
		d.message = ""
		return d, nil
	case killMsg:
		if msg.err != nil {
			d.message = msg.err.Error()
		} else {
			d.message = fmt.Sprintf("sent %s", msg.sig)
		}
		return d, d.pollCmd()
	case tea.KeyMsg:
		return d.handleKey(msg)
	default:
		return d, nil
	}
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", d.keymap.Quit, "Q":
		return d, tea.Quit
	case d.keymap.Kill:
		return d, d.killCmd(model.SignalTerminate)
	case d.keymap.ForceKill, "9":
		return d, d.killCmd(model.SignalForce)
	case d.keymap.Refresh:
		return d, d.pollCmd()
	}
	return d, nil
}

func (d *Dashboard) pollCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := d.client.Status()
		if err != nil {
			return pollMsg{err: err}
		}

		var logs []string
		if status.LogFile != "" {
			result, lerr := d.client.Logs(d.logLines)
			switch {
			case lerr != nil:
				logs = []string{"[no logs yet]"}
			case result.Content == "":
				logs = []string{"[no logs yet]"}
			default:
				logs = strings.Split(result.Content, "\n")
			}
		} else {
			logs = []string{"[process not started]"}
		}

		return pollMsg{status: status, logs: logs}
	}
}

func (d *Dashboard) tickCmd() tea.Cmd {
	return tea.Tick(d.poll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d *Dashboard) killCmd(sig model.Signal) tea.Cmd {
	return func() tea.Msg {
		return killMsg{sig: sig, err: d.client.Kill(sig)}
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	width := d.width
	if width <= 0 {
		width = 80
	}
	height := d.height
	if height <= 0 {
		height = 24
	}

	sideWidth := width / 3
	if sideWidth < minStatusPaneWidth {
		sideWidth = minStatusPaneWidth
	}
	rightWidth := width - sideWidth
	if rightWidth < 20 {
		rightWidth = 20
	}
	bodyHeight := height - 1
	split := bodyHeight / 2

	left := d.renderPane(" STATUS ", d.statusLines(sideWidth-1), sideWidth, bodyHeight)
	topRight := d.renderPane(" SERVER LOGS ", d.serverLines(), rightWidth, split)
	bottomRight := d.renderPane(" APP LOGS ", d.appLines, rightWidth, bodyHeight-split)

	right := lipgloss.JoinVertical(lipgloss.Left, topRight, bottomRight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	footer := d.keymap.HelpLine()
	if d.message != "" {
		footer += "  |  " + d.message
	}
	return body + "\n" + d.styles.Faint.Render(truncate(footer, width))
}

// statusLines builds the left pane content.
func (d *Dashboard) statusLines(width int) []string {
	status := "-"
	pid := "-"
	uptime := "-"
	command := "-"
	if d.status != nil {
		status = string(d.status.Status)
		if d.status.Command != "" {
			command = d.status.Command
		}
		if d.status.Status == model.StatusRunning {
			if d.status.PID != nil {
				pid = fmt.Sprintf("%d", *d.status.PID)
			}
			uptime = formatUptime(d.status.CreatedAt, time.Now())
		}
	}

	lines := []string{
		"STATUS: " + d.styles.statusStyle(status).Render(status),
		"PID: " + pid,
		"UPTIME: " + uptime,
		"",
		"COMMAND:",
	}
	lines = append(lines, wrapText(command, width-2)...)
	return lines
}

func (d *Dashboard) serverLines() []string {
	if d.serverOut == nil {
		return []string{"[attach] server logs are not captured in attach mode"}
	}
	return d.serverOut.Lines()
}

// renderPane renders a title bar plus the last lines that fit.
func (d *Dashboard) renderPane(title string, lines []string, width, height int) string {
	if height < 1 {
		height = 1
	}
	out := make([]string, 0, height)
	out = append(out, d.styles.PaneTitle.Render(padToWidth(title, width)))

	maxLines := height - 1
	visible := lines
	if len(visible) > maxLines {
		visible = visible[len(visible)-maxLines:]
	}
	for i := 0; i < maxLines; i++ {
		line := ""
		if i < len(visible) {
			line = visible[i]
		}
		out = append(out, padToWidth(line, width))
	}
	return strings.Join(out, "\n")
}

func padToWidth(s string, width int) string {
	s = truncate(s, width)
	gap := width - lipgloss.Width(s)
	if gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return truncateToWidth(s, width)
	}
	return truncateToWidth(s, width-3) + "..."
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	current := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		b.WriteRune(r)
		current += rw
	}
	return b.String()
}

// wrapText wraps on word boundaries, width-aware.
func wrapText(s string, width int) []string {
	if width <= 1 {
		return []string{s}
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(s) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if runewidth.StringWidth(candidate) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// formatUptime renders the elapsed time since launch.
func formatUptime(createdAt, now time.Time) string {
	if createdAt.IsZero() || now.Before(createdAt) {
		return "-"
	}
	seconds := int(now.Sub(createdAt).Seconds())
	minutes, sec := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, sec)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%02ds", minutes, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
