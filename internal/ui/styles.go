package ui

import "github.com/charmbracelet/lipgloss"

const progressFillHex = "#00D787"

var (
	panelBorder     = lipgloss.RoundedBorder()
	panelStyle      = lipgloss.NewStyle().Border(panelBorder)
	panelTitleStyle = lipgloss.NewStyle().Bold(true)

	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	okBoldStyle  = okStyle.Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errBoldStyle = errStyle.Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	fieldStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	fieldActiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	fieldEditingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)

	menuStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	menuSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14")).Bold(true)
	menuProceedStyle  = okStyle
	proceedSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true)
	menuCancelStyle   = errStyle
	cancelSelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9")).Bold(true)

	linkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Underline(true)

	logPullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	logBuildStyle = warnStyle
)
