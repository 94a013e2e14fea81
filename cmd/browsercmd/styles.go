package main

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FFB3BA")
	green  = lipgloss.Color("#A8E6CF")
	red    = lipgloss.Color("#FF6B6B")
	gray   = lipgloss.Color("#6B7280")
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(gray)
	commandStyle = lipgloss.NewStyle().Bold(true).Width(20)
)
