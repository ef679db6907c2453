package main

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/stream"
	"github.com/leadwise/leadwise/internal/toolcall"
)

type renderer struct {
	userStyle      lipgloss.Style
	assistantStyle lipgloss.Style
	toolStyle      lipgloss.Style
	successStyle   lipgloss.Style
	errorStyle     lipgloss.Style
	mutedStyle     lipgloss.Style
}

func newRenderer() *renderer {
	purple := lipgloss.Color("99")
	green := lipgloss.Color("42")
	red := lipgloss.Color("196")
	gray := lipgloss.Color("245")

	return &renderer{
		userStyle:      lipgloss.NewStyle().Bold(true),
		assistantStyle: lipgloss.NewStyle().Foreground(purple),
		toolStyle:      lipgloss.NewStyle().Foreground(gray),
		successStyle:   lipgloss.NewStyle().Foreground(green),
		errorStyle:     lipgloss.NewStyle().Foreground(red).Bold(true),
		mutedStyle:     lipgloss.NewStyle().Foreground(gray).Italic(true),
	}
}

func (r *renderer) message(m session.Message) string {
	switch m.Role {
	case session.RoleUser:
		return r.userStyle.Render("you") + "  " + m.Content
	case session.RoleAssistant:
		out := r.assistantStyle.Render("assistant") + "  " + m.Content
		if m.Extra != nil && len(m.Extra.ToolCalls) > 0 {
			var lines []string
			for _, tc := range m.Extra.ToolCalls {
				lines = append(lines, "  "+r.settledTool(tc))
			}
			out += "\n" + strings.Join(lines, "\n")
		}
		return out
	default:
		return r.mutedStyle.Render(string(m.Role)) + "  " + m.Content
	}
}

// toolStatus renders one live tool call with its floored display status.
func (r *renderer) toolStatus(rec toolcall.Record) string {
	switch rec.DisplayStatus {
	case stream.StatusSuccess:
		line := fmt.Sprintf("✓ %s", toolcall.Label(rec.Name))
		if rec.Summary != "" {
			line += " — " + rec.Summary
		}
		return r.successStyle.Render(line)
	case stream.StatusError:
		return r.errorStyle.Render(fmt.Sprintf("✗ %s failed", toolcall.Label(rec.Name)))
	default:
		return r.toolStyle.Render(fmt.Sprintf("… %s", toolcall.Label(rec.Name)))
	}
}

func (r *renderer) settledTool(tc session.ToolCallSnapshot) string {
	glyph := "✓"
	style := r.successStyle
	if tc.Status == stream.StatusError {
		glyph = "✗"
		style = r.errorStyle
	}
	line := fmt.Sprintf("%s %s", glyph, toolcall.Label(tc.Name))
	if tc.Summary != "" {
		line += " — " + tc.Summary
	}
	return style.Render(line)
}

func (r *renderer) errorLine(message string) string {
	return r.errorStyle.Render("error: " + message)
}

func (r *renderer) muted(text string) string {
	return r.mutedStyle.Render(text)
}
