package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/glabrego/spacedeck/internal/content"
)

func TestBadge_BySource(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()

	for _, src := range []content.Source{content.SourceNASA, content.SourceISRO, content.SourceESA, "JAXA"} {
		got := th.Badge(src)
		if !strings.Contains(got, "\x1b[") {
			t.Fatalf("expected styled badge for %s, got %q", src, got)
		}
		if !strings.Contains(got, string(src)) {
			t.Fatalf("expected badge to carry label %s, got %q", src, got)
		}
	}
}

func TestRenderActiveLine(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()

	if got := th.RenderActiveLine(false, "plain"); got != "plain" {
		t.Fatalf("inactive line should be unchanged, got %q", got)
	}
	if got := th.RenderActiveLine(true, "active"); !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected styled active line, got %q", got)
	}
}
