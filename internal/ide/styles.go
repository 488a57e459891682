package ide

import (
	"github.com/charmbracelet/lipgloss"

	"agentide/internal/mode"
	"agentide/internal/notify"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	systemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	panelBorder  = lipgloss.RoundedBorder()
	focusedColor = lipgloss.Color("12")
	blurredColor = lipgloss.Color("8")
)

func modeStyle(m mode.Mode) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("0"))
	switch m {
	case mode.Insert:
		return base.Background(lipgloss.Color("10"))
	case mode.Agentic:
		return base.Background(lipgloss.Color("13"))
	default:
		return base.Background(lipgloss.Color("12"))
	}
}

func kindStyle(k notify.Kind) lipgloss.Style {
	switch k {
	case notify.KindFileOperation:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case notify.KindInfo:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	case notify.KindDebug:
		return hintStyle
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	}
}

// box draws content inside a rounded border that occupies exactly w x h cells.
func box(title string, body []string, w, h int, focused bool) string {
	if w < 2 || h < 2 {
		return ""
	}
	color := blurredColor
	if focused {
		color = focusedColor
	}
	innerW, innerH := w-2, h-2
	lines := make([]string, 0, innerH)
	if innerH > 0 {
		lines = append(lines, titleStyle.Render(truncateANSI(title, innerW)))
		lines = append(lines, body...)
	}
	return lipgloss.NewStyle().
		Border(panelBorder).
		BorderForeground(color).
		Width(innerW).
		Height(innerH).
		MaxWidth(w).
		MaxHeight(h).
		Render(fitLines(lines, innerW, innerH))
}
