package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/jarvik/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Dracula color scheme.
var (
	Comment = lipgloss.Color("#6272a4")
	Cyan    = lipgloss.Color("#8be9fd")
	Green   = lipgloss.Color("#50fa7b")
	Orange  = lipgloss.Color("#ffb86c")
	Pink    = lipgloss.Color("#ff79c6")
	Purple  = lipgloss.Color("#bd93f9")
)

var (
	responseStyle = lipgloss.NewStyle().Foreground(Cyan)
	contextStyle  = lipgloss.NewStyle().Foreground(Comment).Italic(true)
	footerStyle   = lipgloss.NewStyle().Foreground(Purple)
	successStyle  = lipgloss.NewStyle().Foreground(Green).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(Pink).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(Orange)
)

func formatAnswer(resp models.AskResponse, width int) string {
	var sb strings.Builder
	sb.WriteString(responseStyle.Render(wordwrap.String(strings.TrimSpace(resp.Response), width)))
	sb.WriteString("\n\n")
	if resp.ContextUsed {
		sb.WriteString(contextStyle.Render(fmt.Sprintf("Used %d context item(s).", resp.ContextItemsCount)))
	} else {
		sb.WriteString(warningStyle.Render("No context was available."))
	}
	sb.WriteString("\n")
	sb.WriteString(footerStyle.Render(fmt.Sprintf("model: %s, memory: %s", resp.Model, resp.MemoryMode)))
	return sb.String()
}

func formatModels(names []string, selected string) string {
	if len(names) == 0 {
		return warningStyle.Render("No models available.")
	}
	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteString("\n")
		}
		if name == selected {
			sb.WriteString(selectedStyle.Render("* " + name))
			continue
		}
		sb.WriteString("  " + name)
	}
	if selected == "" {
		sb.WriteString("\n")
		sb.WriteString(footerStyle.Render("The gateway chooses a model for each request."))
	}
	return sb.String()
}

// formatJSON indents raw JSON, returning it unchanged if it can't be parsed.
func formatJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
