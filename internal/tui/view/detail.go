package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
	"github.com/glabrego/spacedeck/internal/render/text"
	"github.com/glabrego/spacedeck/internal/tui/state"
	tuitheme "github.com/glabrego/spacedeck/internal/tui/theme"
)

const (
	overlayMaxWidth  = 88
	overlayMinWidth  = 24
	overlayChrome    = 6 // border plus horizontal padding
	overlayVertical  = 4 // border plus vertical padding
	backdropFillRune = " "
)

type InlineImagePreviewState struct {
	Enabled bool
	Loading bool
	Raw     string
	Err     string
}

// DetailLines builds the overlay body for item: title, image, text, source
// and the original link when there is one.
func DetailLines(item content.DisplayItem, width int, preview InlineImagePreviewState) []string {
	lines := detailHeading(item.Title, width)

	if item.Image != "" {
		lines = append(lines, text.Wrap("Image: "+item.Image, width)...)
		lines = appendInlineImagePreview(lines, preview, width)
		lines = append(lines, "")
	}

	lines = appendParagraphs(lines, item.Body(), width)
	lines = append(lines, "Source: "+string(item.Source))
	if item.HasLink() {
		lines = append(lines, text.Wrap("Open original: "+item.Link, width)...)
	}
	return lines
}

// PaperDetailLines builds the overlay body for a search result.
func PaperDetailLines(p crossref.Paper, width int) []string {
	lines := detailHeading(p.Title, width)
	if byline := strings.Trim(p.Byline(), " •"); byline != "" {
		lines = append(lines, text.Wrap(byline, width)...)
		lines = append(lines, "")
	}
	lines = appendParagraphs(lines, p.Snippet, width)
	lines = append(lines, "Source: "+PaperSourceLabel)
	if strings.TrimSpace(p.Link) != "" {
		lines = append(lines, text.Wrap("Open original: "+p.Link, width)...)
	}
	return lines
}

func detailHeading(title string, width int) []string {
	lines := make([]string, 0, 24)
	lines = append(lines, text.Wrap(title, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, visibleLen(title)))))
	return append(lines, "")
}

func appendParagraphs(lines []string, body string, width int) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return lines
	}
	for i, para := range strings.Split(body, "\n\n") {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, text.Wrap(para, width)...)
	}
	return append(lines, "")
}

func appendInlineImagePreview(lines []string, preview InlineImagePreviewState, width int) []string {
	if !preview.Enabled {
		return lines
	}
	switch {
	case preview.Loading:
		return append(lines, "Loading image preview...")
	case strings.TrimSpace(preview.Raw) != "":
		raw := strings.TrimRight(preview.Raw, "\r\n")
		if ContainsKittyGraphicsEscape(raw) {
			return append(lines, raw)
		}
		return append(lines, centerLines(strings.Split(raw, "\n"), width)...)
	case strings.TrimSpace(preview.Err) != "":
		return append(lines, "Image preview unavailable: "+preview.Err)
	}
	return lines
}

// OverlayInnerWidth is the text width available inside an overlay drawn on
// a screen screenW cells wide.
func OverlayInnerWidth(screenW int) int {
	w := min(screenW-4, overlayMaxWidth) - overlayChrome
	return max(w, overlayMinWidth-overlayChrome)
}

// OverlayMaxBodyLines is how many body lines fit on a screen screenH tall.
func OverlayMaxBodyLines(screenH int) int {
	return max(1, screenH-2-overlayVertical)
}

func DetailMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

// RenderOverlay draws the overlay box centered on a blank backdrop and
// returns the screen plus the box bounds used for mouse hit testing.
func RenderOverlay(lines []string, top, screenW, screenH int, th tuitheme.Theme) (string, state.Rect) {
	bodyH := OverlayMaxBodyLines(screenH)
	top = max(0, min(top, DetailMaxTop(len(lines), bodyH)))
	end := min(len(lines), top+bodyH)
	body := strings.Join(lines[top:end], "\n")

	box := th.OverlayBox.Width(OverlayInnerWidth(screenW) + overlayChrome - 2).Render(body)
	boxW, boxH := lipgloss.Width(box), lipgloss.Height(box)
	bounds := state.OverlayBounds(screenW, screenH, boxW, boxH)
	return placeBox(box, bounds, screenH), bounds
}

func placeBox(box string, r state.Rect, screenH int) string {
	var b strings.Builder
	pad := strings.Repeat(backdropFillRune, max(0, r.X))
	for i := 0; i < r.Y; i++ {
		b.WriteString("\n")
	}
	for i, line := range strings.Split(box, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pad)
		b.WriteString(line)
	}
	for i := r.Y + r.H; i < screenH; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func centerLines(lines []string, width int) []string {
	if width <= 0 || len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		visible := visibleLen(line)
		if visible >= width {
			out[i] = line
			continue
		}
		out[i] = strings.Repeat(" ", (width-visible)/2) + line
	}
	return out
}
