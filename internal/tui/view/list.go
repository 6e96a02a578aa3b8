package view

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/render/text"
	tuitheme "github.com/glabrego/spacedeck/internal/tui/theme"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const (
	OpenAffordance     = "enter open"
	OriginalAffordance = "o open original"
	NoLinkAffordance   = "no original link"
	cardSummaryLines   = 3
)

type WrapFunc func(string, int) []string

// CardLines renders one card: title, source badge, summary and the two
// affordances. Cards without a link show the original affordance disabled.
func CardLines(item content.DisplayItem, active bool, width int, th tuitheme.Theme) []string {
	if width < 20 {
		width = 20
	}
	marker := "  "
	if active {
		marker = "> "
	}
	inner := width - len(marker)

	badge := th.Badge(item.Source)
	title := truncateRunes(strings.TrimSpace(item.Title), inner-visibleLen(badge)-1)
	lines := []string{marker + badge + " " + th.CardTitle.Render(title)}

	summary := text.Wrap(item.Summary, inner)
	if len(summary) > cardSummaryLines {
		summary = summary[:cardSummaryLines]
		summary[cardSummaryLines-1] = truncateRunes(summary[cardSummaryLines-1]+"...", inner)
	}
	for _, line := range summary {
		lines = append(lines, "  "+th.CardSummary.Render(line))
	}

	open := th.Affordance.Render("[" + OpenAffordance + "]")
	original := th.Affordance.Render("[" + OriginalAffordance + "]")
	if !item.HasLink() {
		original = th.AffordanceMuted.Render("[" + NoLinkAffordance + "]")
	}
	lines = append(lines, "  "+open+" "+original)

	for i := range lines {
		lines[i] = th.RenderActiveLine(active, lines[i])
	}
	return lines
}

type CardsInput struct {
	Items   []content.DisplayItem
	Cursor  int
	Width   int
	Height  int
	Loading bool
	Filter  content.Filter
}

// RenderCards paints the card list in input order, scrolled so the cursor
// card stays visible. The output replaces whatever was shown before.
func RenderCards(in CardsInput, th tuitheme.Theme) string {
	if len(in.Items) == 0 {
		if in.Loading {
			return "Loading space news...\n"
		}
		if !in.Filter.IsZero() {
			return "No cards match the current filter.\n"
		}
		return "No cards to show.\n"
	}

	blocks := make([][]string, len(in.Items))
	for i, item := range in.Items {
		blocks[i] = append(CardLines(item, i == in.Cursor, in.Width, th), "")
	}

	start := cardWindowStart(blocks, in.Cursor, in.Height)
	var b strings.Builder
	used := 0
	for i := start; i < len(blocks); i++ {
		if in.Height > 0 && used+len(blocks[i]) > in.Height && i != start {
			break
		}
		for _, line := range blocks[i] {
			b.WriteString(line)
			b.WriteString("\n")
		}
		used += len(blocks[i])
	}
	return b.String()
}

// cardWindowStart returns the first card to draw so that the cursor card
// ends inside height lines.
func cardWindowStart(blocks [][]string, cursor, height int) int {
	if height <= 0 || cursor <= 0 {
		return 0
	}
	if cursor >= len(blocks) {
		cursor = len(blocks) - 1
	}
	used := 0
	start := cursor
	for start >= 0 {
		used += len(blocks[start])
		if used > height {
			break
		}
		start--
	}
	start++
	if start > cursor {
		start = cursor
	}
	return start
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
