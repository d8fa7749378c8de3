package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	reflowtruncate "github.com/muesli/reflow/truncate"
)

// topBorderWithTitle draws a panel's top border with the title embedded in
// the line itself, so titles cost no body height.
func topBorderWithTitle(width int, title string, border lipgloss.Border) string {
	if width <= 0 {
		return ""
	}

	fillW := width - lipgloss.Width(border.TopLeft) - lipgloss.Width(border.TopRight)
	if fillW < 0 {
		return ""
	}
	if fillW == 0 {
		return border.TopLeft + border.TopRight
	}

	title = strings.TrimSpace(title)
	maxTitleW := fillW - lipgloss.Width(border.Top) - 2
	if title == "" || maxTitleW < 1 {
		return border.TopLeft + repeatToWidth(border.Top, fillW) + border.TopRight
	}

	block := border.Top + " " + panelTitleStyle.Render(runewidth.Truncate(title, maxTitleW, "")) + " "
	if lipgloss.Width(block) > fillW {
		// Hard cut without an ellipsis; the border line must stay clean.
		block = reflowtruncate.StringWithTail(block, uint(fillW), "")
	}

	rest := fillW - lipgloss.Width(block)
	return border.TopLeft + block + repeatToWidth(border.Top, rest) + border.TopRight
}

func repeatToWidth(s string, width int) string {
	if width <= 0 || s == "" {
		return ""
	}
	cellW := lipgloss.Width(s)
	if cellW <= 0 {
		return ""
	}
	return runewidth.Truncate(strings.Repeat(s, width/cellW+1), width, "")
}
