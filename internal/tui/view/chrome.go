package view

import (
	"fmt"
	"strings"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/tui/state"
	tuitheme "github.com/glabrego/spacedeck/internal/tui/theme"
)

// Tabs renders the view switcher; exactly one tab is highlighted.
func Tabs(active state.View, th tuitheme.Theme) string {
	parts := make([]string, 0, len(state.Views()))
	for i, v := range state.Views() {
		label := fmt.Sprintf("%d %s", i+1, v.Title())
		if v == active {
			parts = append(parts, th.TabActive.Render(label))
			continue
		}
		parts = append(parts, th.TabInactive.Render(label))
	}
	return th.Title.Render("spacedeck") + "  " + strings.Join(parts, " ")
}

func Toolbar(view state.View, inOverlay, typing bool) string {
	switch {
	case typing:
		return "enter submit | esc cancel"
	case inOverlay:
		return "j/k scroll | o open original | y copy link | esc/x close | click outside to close"
	}
	switch view {
	case state.ViewPapers:
		return "j/k move | / query | enter open | r reload | 1-4 views | ? help | q quit"
	case state.ViewAssistant:
		return "i type | enter send | 1-4 views | ? help | q quit"
	default:
		return "j/k move | enter open | o open original | / search | f source | r reload | 1-4 views | ? help | q quit"
	}
}

func HelpLines() []string {
	return []string{
		"1 2 3 4      switch to home, research, papers, assistant",
		"tab/shift+tab cycle views",
		"j/k, arrows  move the cursor",
		"enter        open the detail overlay / submit input",
		"o            open the original link in a browser",
		"y            copy the original link",
		"/            search cards or set the paper query",
		"f            cycle the source filter (all, NASA, ISRO, ESA)",
		"ctrl+l       clear search and filter",
		"i            focus the assistant input",
		"esc, x       close the overlay or cancel input",
		"r            reload the current view",
		"?            toggle this help",
		"q, ctrl+c    quit",
	}
}

func FilterLine(filter content.Filter, shown int, th tuitheme.Theme) string {
	parts := []string{
		th.MetaLabel.Render("source") + " " + th.MetaValue.Render(filter.SourceLabel()),
		th.MetaValue.Render(fmt.Sprintf("%d shown", shown)),
	}
	if filter.Query != "" {
		parts = append(parts, th.MetaLabel.Render("search")+" "+th.MetaValue.Render(fmt.Sprintf("%q", filter.Query)))
	}
	return strings.Join(parts, " • ")
}

func CompactMessage(loading bool, hasWarning bool, status, warning, spinner string, th tuitheme.Theme) string {
	state := "idle"
	if loading {
		state = "loading"
	}
	if hasWarning {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if hasWarning {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "loading":
		stateLabel = th.StateLoad.Render("state")
		if spinner != "" {
			stateLabel = spinner + " " + stateLabel
		}
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}
