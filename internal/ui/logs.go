package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harborline/harbormaster/internal/logtail"
)

type logLinesMsg struct {
	lines []string
	err   error
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m Model) renderLogs() string {
	title := "Console log"
	if m.logPath != "" {
		title += " · " + truncateMiddle(m.logPath, 50)
	}
	return m.renderBox(title, m.logViewport.View(), m.width, m.contentHeight(), true)
}

// updateLogViewport re-renders the log lines, staying pinned to the bottom
// when the operator had not scrolled away from it.
func (m *Model) updateLogViewport() {
	atBottom := m.logViewport.AtBottom()
	m.logViewport.SetContent(m.formatLogContent())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m Model) formatLogContent() string {
	styles := m.theme.Styles()
	switch {
	case m.logErr != nil:
		return styles.DangerText.Render("Cannot read log: " + m.logErr.Error())
	case m.logPath == "":
		return styles.MutedText.Render("Logging to stderr; no log file to show.")
	case len(m.logLines) == 0:
		return styles.MutedText.Render("No log entries yet.")
	}
	out := make([]string, 0, len(m.logLines))
	for _, entry := range logtail.ParseLines(m.logLines) {
		out = append(out, m.formatLogEntry(entry))
	}
	return strings.Join(out, "\n")
}

func (m Model) formatLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	if e.Level == "" && e.Time.IsZero() {
		return styles.Text.Render(e.Raw)
	}

	parts := []string{styles.FaintText.Render(e.Time.In(time.Local).Format("15:04:05"))}
	parts = append(parts, m.levelStyle(e.Level).Render(fmt.Sprintf("%-5s", e.Level)))
	if e.Component != "" {
		parts = append(parts, styles.AccentText.Render("["+e.Component+"]"))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	for _, f := range e.Fields {
		parts = append(parts, styles.MutedText.Render(f.Key+"=")+styles.FaintText.Render(f.Value))
	}
	if e.Error != "" {
		parts = append(parts, styles.DangerText.Render("error=")+styles.Text.Render(e.Error))
	}
	return strings.Join(parts, " ")
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "ERROR", "FATAL", "PANIC":
		return styles.DangerText
	case "WARN":
		return styles.WarningText.Bold(true)
	case "DEBUG", "TRACE":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}
