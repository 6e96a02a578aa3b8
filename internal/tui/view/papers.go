package view

import (
	"strings"

	"github.com/glabrego/spacedeck/internal/crossref"
	"github.com/glabrego/spacedeck/internal/render/text"
	tuitheme "github.com/glabrego/spacedeck/internal/tui/theme"
)

const (
	PapersLoadingText = "Loading papers..."
	PapersEmptyText   = "No results"
	PapersFailedText  = "Failed to load papers."
	PaperSourceLabel  = "Crossref"
)

type PapersInput struct {
	Query   string
	Papers  []crossref.Paper
	Loading bool
	Failed  bool
	Cursor  int
	Width   int
}

func RenderPapers(in PapersInput, th tuitheme.Theme) string {
	var b strings.Builder
	b.WriteString(th.MetaLabel.Render("query") + " " + th.MetaValue.Render(in.Query) + "\n\n")

	switch {
	case in.Loading:
		b.WriteString(th.StateLoad.Render(PapersLoadingText) + "\n")
		return b.String()
	case in.Failed:
		b.WriteString(th.StateWarn.Render(PapersFailedText) + "\n")
		return b.String()
	case len(in.Papers) == 0:
		b.WriteString(PapersEmptyText + "\n")
		return b.String()
	}

	width := in.Width
	if width < 20 {
		width = 20
	}
	for i, p := range in.Papers {
		for _, line := range PaperLines(p, i == in.Cursor, width, th) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func PaperLines(p crossref.Paper, active bool, width int, th tuitheme.Theme) []string {
	marker := "  "
	if active {
		marker = "> "
	}
	inner := width - len(marker)
	lines := []string{marker + th.CardTitle.Render(truncateRunes(p.Title, inner))}
	if byline := p.Byline(); byline != "" {
		lines = append(lines, "  "+th.MetaValue.Render(truncateRunes(byline, inner)))
	}
	for _, line := range text.Wrap(p.Snippet, inner) {
		lines = append(lines, "  "+th.CardSummary.Render(line))
	}
	if p.Link != "" {
		lines = append(lines, "  "+th.MetaLabel.Render(truncateRunes(p.Link, inner)))
	}
	for i := range lines {
		lines[i] = th.RenderActiveLine(active, lines[i])
	}
	return lines
}
