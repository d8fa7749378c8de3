package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/analytics-hq/installer/internal/domain"
)

// Rows consumed by everything around the log viewport on the install screen:
// three bordered single-line panels plus the help line.
const installChromeHeight = 14

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}

	switch m.machine.State {
	case domain.StateConfirmation:
		return m.viewConfirmation()
	case domain.StateEnvSetup:
		return m.viewEnvSetup()
	case domain.StateInstalling:
		return m.viewInstalling()
	case domain.StateSuccess:
		return m.viewSuccess()
	default:
		return m.viewError()
	}
}

func (m *Model) contentWidth() int {
	w := m.width - 2
	if w > 100 {
		w = 100
	}
	if w < 40 {
		w = 40
	}
	return w
}

func panel(title string, width int, body string) string {
	top := topBorderWithTitle(width, title, panelBorder)
	box := panelStyle.BorderTop(false).Width(width - 2).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, top, box)
}

func centered(width int, s string) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

func (m *Model) titlePanel(text string, style lipgloss.Style) string {
	w := m.contentWidth()
	return panel("", w, centered(w-2, style.Render(text)))
}

func (m *Model) viewConfirmation() string {
	w := m.contentWidth()
	files := m.machine.Files

	var b strings.Builder
	header := "Configuration Files:"
	if files.AllPresent() {
		b.WriteString(okStyle.Render(header))
	} else {
		b.WriteString(warnStyle.Render(header))
	}
	b.WriteString("\n\n")
	b.WriteString(fileStatusLine(".env", files.EnvExists))
	b.WriteString("\n")
	b.WriteString(fileStatusLine("config.yaml", files.ConfigExists))
	b.WriteString("\n\n")

	if files.AllPresent() {
		b.WriteString(okBoldStyle.Render("✅ All configuration files ready!"))
		b.WriteString("\n\nServices to be started:\n")
		b.WriteString("  • analytics-service\n")
		b.WriteString("  • qdrant\n")
		b.WriteString("  • northwind-db (PostgreSQL demo)\n")
		b.WriteString("  • analytics-ui")
	} else {
		b.WriteString(warnStyle.Bold(true).Render("⚠️  Some configuration files are missing!"))
		b.WriteString("\n")
		b.WriteString("Please generate the missing files before proceeding.")
	}

	var menu []string
	if !files.EnvExists {
		menu = append(menu, menuItem("[ Generate .env ]", m.machine.Menu == domain.MenuGenerateEnv, menuStyle, menuSelectedStyle))
	}
	if !files.ConfigExists {
		menu = append(menu, menuItem("[ Generate config.yaml ]", m.machine.Menu == domain.MenuGenerateConfig, menuStyle, menuSelectedStyle))
	}
	if files.AllPresent() {
		menu = append(menu, menuItem("[ Proceed with Installation ]", m.machine.Menu == domain.MenuProceed, menuProceedStyle, proceedSelStyle))
	}
	menu = append(menu, menuItem("[ Cancel ]", m.machine.Menu == domain.MenuCancel, menuCancelStyle, cancelSelStyle))

	for i, line := range menu {
		menu[i] = centered(w-2, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.titlePanel("🚀 Analytics Installer v"+m.version, titleStyle),
		panel("Status", w, centerBlock(w-2, b.String())),
		panel("Menu", w, strings.Join(menu, "\n")),
		centered(w, mutedStyle.Render("Use ↑↓ to navigate, Enter to select, Esc to cancel")),
	)
}

func fileStatusLine(name string, exists bool) string {
	if exists {
		return "  " + okStyle.Render("✓") + " " + name
	}
	return "  " + errStyle.Render("✗") + " " + name + errStyle.Render(" (missing)")
}

func menuItem(label string, selected bool, normal, active lipgloss.Style) string {
	if selected {
		return active.Render(label)
	}
	return normal.Render(label)
}

func centerBlock(width int, block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = centered(width, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewEnvSetup() string {
	w := m.contentWidth()
	form := m.machine.Form

	var b strings.Builder
	b.WriteString("Please provide the following information:\n\n")

	writeField := func(f domain.FormField, value string, required bool) {
		style := fieldStyle
		if form.Field == f {
			if form.Editing {
				style = fieldEditingStyle
			} else {
				style = fieldActiveStyle
			}
		}
		line := style.Render(f.Label()+": ") + style.Render(value)
		if required {
			line += errStyle.Render(" *")
		}
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	writeField(domain.FieldAPIKey, padField(form.APIKey, 40), true)
	writeField(domain.FieldGenerationModel, form.GenerationModel, false)
	writeField(domain.FieldHostPort, form.HostPort, false)
	writeField(domain.FieldAIServicePort, form.AIServicePort, false)

	if form.ErrorMessage != "" {
		b.WriteString(errBoldStyle.Render(form.ErrorMessage))
		b.WriteString("\n\n")
	}
	b.WriteString(mutedStyle.Render("* Required field"))

	help := "↑↓ to navigate, Enter to edit, Ctrl+S to save, Esc to cancel"
	if form.Editing {
		help = "Type to edit, Enter to finish, Esc to cancel"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.titlePanel("🔧 Generate .env File", titleStyle),
		panel("Configuration Form", w, b.String()),
		centered(w, mutedStyle.Render(help)),
	)
}

// padField fills the remaining input slot with underscores so the editable
// region is visible even while empty.
func padField(value string, slot int) string {
	if len(value) >= slot {
		return value
	}
	return value + strings.Repeat("_", slot-len(value))
}

func (m *Model) viewInstalling() string {
	w := m.contentWidth()

	bar := m.progress.ViewAs(m.install.Pct / 100)
	progressBody := centered(w-2, fmt.Sprintf("%s %3.0f%%", bar, m.install.Pct))

	status := "Initializing..."
	if m.install.Service != "" {
		status = fmt.Sprintf("Current: %s (%d/%d)", m.install.Service, m.install.Completed, m.install.Total)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.titlePanel(m.spin.View()+" Installing Analytics... Please wait", warnStyle.Bold(true)),
		panel("Progress", w, progressBody),
		panel("Status", w, centered(w-2, okStyle.Render(status))),
		panel("📋 Installation Logs", w, m.logVP.View()),
		centered(w, mutedStyle.Render("Press Ctrl+C to cancel")),
	)
}

func (m *Model) viewSuccess() string {
	w := m.contentWidth()

	port := m.machine.Form.HostPort
	if port == "" {
		port = "3000"
	}
	body := strings.Join([]string{
		okBoldStyle.Render("Analytics has been successfully installed!"),
		"",
		"All services are now running. You can access Analytics UI at:",
		linkStyle.Render("http://localhost:" + port),
	}, "\n")

	return lipgloss.JoinVertical(lipgloss.Left,
		m.titlePanel("✅ Installation Complete!", okBoldStyle),
		panel("Success", w, centerBlock(w-2, body)),
		panel("Installation Summary", w, strings.Join(m.logs.Tail(10), "\n")),
		centered(w, mutedStyle.Render("Press Ctrl+C to exit")),
	)
}

func (m *Model) viewError() string {
	w := m.contentWidth()

	return lipgloss.JoinVertical(lipgloss.Left,
		m.titlePanel("❌ Installation Failed", errBoldStyle),
		panel("Error", w, centerBlock(w-2, errBoldStyle.Render(m.machine.Message))),
		panel("Last Logs", w, m.renderLogLines(w-2)),
		centered(w, mutedStyle.Render("Press Ctrl+C to exit")),
	)
}

// renderLogLines colors the scrollback by line kind, mirroring the emoji
// vocabulary the classifier emits.
func (m *Model) renderLogLines(width int) string {
	lines := m.logs.Entries
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		var styled string
		switch {
		case strings.Contains(line, "❌") || strings.Contains(line, "error"):
			styled = errStyle.Render(line)
		case strings.Contains(line, "✅") || strings.Contains(line, "started"):
			styled = okStyle.Render(line)
		case strings.Contains(line, "⬇️"):
			styled = logPullStyle.Render(line)
		case strings.Contains(line, "🔨"):
			styled = logBuildStyle.Render(line)
		default:
			styled = line
		}
		if width > 0 {
			styled = lipgloss.NewStyle().MaxWidth(width).Render(styled)
		}
		out = append(out, styled)
	}
	return strings.Join(out, "\n")
}
