package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/spacedeck/internal/content"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	Section    lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	CardTitle       lipgloss.Style
	CardSummary     lipgloss.Style
	Affordance      lipgloss.Style
	AffordanceMuted lipgloss.Style

	BadgeNASA  lipgloss.Style
	BadgeISRO  lipgloss.Style
	BadgeESA   lipgloss.Style
	BadgeOther lipgloss.Style

	ChatUser      lipgloss.Style
	ChatAssistant lipgloss.Style
	ChatPending   lipgloss.Style

	OverlayBox lipgloss.Style
}

func Default() Theme {
	cpRosewater := lipgloss.Color("#f5e0dc")
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpBlue := lipgloss.Color("#89b4fa")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")
	cpBase := lipgloss.Color("#1e1e2e")

	badge := lipgloss.NewStyle().Bold(true).Foreground(cpBase).Padding(0, 1)

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:   lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),

		TabActive:   lipgloss.NewStyle().Bold(true).Foreground(cpBase).Background(cpMauve).Padding(0, 1),
		TabInactive: lipgloss.NewStyle().Foreground(cpSubtext0).Padding(0, 1),

		CardTitle:       lipgloss.NewStyle().Bold(true).Foreground(cpText),
		CardSummary:     lipgloss.NewStyle().Foreground(cpSubtext1),
		Affordance:      lipgloss.NewStyle().Foreground(cpTeal),
		AffordanceMuted: lipgloss.NewStyle().Foreground(cpOverlay1).Faint(true),

		BadgeNASA:  badge.Background(cpBlue),
		BadgeISRO:  badge.Background(cpPeach),
		BadgeESA:   badge.Background(cpGreen),
		BadgeOther: badge.Background(cpOverlay1),

		ChatUser:      lipgloss.NewStyle().Bold(true).Foreground(cpYellow),
		ChatAssistant: lipgloss.NewStyle().Bold(true).Foreground(cpLavender),
		ChatPending:   lipgloss.NewStyle().Italic(true).Foreground(cpOverlay1),

		OverlayBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cpRosewater).
			Padding(1, 2),
	}
}

func (t Theme) Badge(src content.Source) string {
	label := string(src)
	if label == "" {
		label = "?"
	}
	switch src {
	case content.SourceNASA:
		return t.BadgeNASA.Render(label)
	case content.SourceISRO:
		return t.BadgeISRO.Render(label)
	case content.SourceESA:
		return t.BadgeESA.Render(label)
	default:
		return t.BadgeOther.Render(label)
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
