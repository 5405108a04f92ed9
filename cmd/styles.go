// ABOUTME: Shared lipgloss styles for command output
// ABOUTME: Status colors and muted text used across commands

package cmd

import "github.com/charmbracelet/lipgloss"

var (
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	styleActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
)
