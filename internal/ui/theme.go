// Package ui holds terminal styles for the taskflowctl command.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskflow/internal/models"
)

const (
	IconMap      = "🗺️"
	IconDone     = "✅"
	IconFlag     = "🚩"
	IconLock     = "🔒"
	IconBoard    = "📋"
	IconCalendar = "📅"
	IconError    = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")
	cAccent  = lipgloss.Color("205")
	cGood    = lipgloss.Color("42")
	cWarn    = lipgloss.Color("214")
	cBad     = lipgloss.Color("196")
	cMuted   = lipgloss.Color("244")
	cGold    = lipgloss.Color("220")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
)

func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// BoardStatus colours a board task status.
func BoardStatus(status models.BoardStatus) string {
	switch status {
	case models.BoardFree:
		return Good.Render(string(status))
	case models.BoardTaken:
		return Warn.Render(string(status))
	case models.BoardDone:
		return Muted.Render(string(status))
	default:
		return Bad.Render(string(status))
	}
}

// ProgressBar renders pct (0-100) as a fixed-width bar.
func ProgressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return Gold.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}
