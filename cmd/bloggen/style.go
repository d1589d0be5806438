package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Guidantas28/blog-generator/internal/automation"
	"github.com/Guidantas28/blog-generator/internal/database"
)

var styles = struct {
	success lipgloss.Style
	failure lipgloss.Style
	running lipgloss.Style
	warning lipgloss.Style
	hint    lipgloss.Style
	title   lipgloss.Style
}{
	success: lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true),
	failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true),
	running: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")),
	warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")),
	hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true),
	title:   lipgloss.NewStyle().Bold(true),
}

func renderExecutionStatus(s database.ExecutionStatus) string {
	switch s {
	case database.StatusCompleted:
		return styles.success.Render(string(s))
	case database.StatusFailed:
		return styles.failure.Render(string(s))
	case database.StatusRunning:
		return styles.running.Render(string(s))
	}
	return styles.hint.Render(string(s))
}

func renderDetailStatus(s string) string {
	if s == automation.DetailSuccess {
		return styles.success.Render("ok")
	}
	return styles.failure.Render("failed")
}
