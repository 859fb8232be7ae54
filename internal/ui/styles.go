// Package ui provides lipgloss-styled terminal output helpers.
package ui

import (
	"encoding/json"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // red

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // green

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // yellow

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")) // dim gray

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")) // bright blue
)

// RenderError renders s in the error style.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderOK renders s in the success style.
func RenderOK(s string) string { return successStyle.Render(s) }

// RenderWarn renders s in the warning style.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderMuted renders s dimmed, for dry-run and secondary output.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderKey renders an issue key or field name emphasized.
func RenderKey(s string) string { return keyStyle.Render(s) }

// RenderJSON pretty-prints raw JSON for terminal display. Invalid or empty
// input falls back to the raw text.
func RenderJSON(raw json.RawMessage) string {
	var buf any
	if err := json.Unmarshal(raw, &buf); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
