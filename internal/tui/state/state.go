package state

import (
	"fmt"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
)

type View int

const (
	ViewHome View = iota
	ViewResearch
	ViewPapers
	ViewAssistant
)

var viewNames = [...]string{"home", "research", "papers", "assistant"}

func Views() []View {
	return []View{ViewHome, ViewResearch, ViewPapers, ViewAssistant}
}

func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return fmt.Sprintf("view(%d)", int(v))
	}
	return viewNames[v]
}

func (v View) Title() string {
	switch v {
	case ViewHome:
		return "Home"
	case ViewResearch:
		return "Research"
	case ViewPapers:
		return "Papers"
	case ViewAssistant:
		return "Assistant"
	default:
		return v.String()
	}
}

func ParseView(raw string) (View, error) {
	for i, name := range viewNames {
		if name == raw {
			return View(i), nil
		}
	}
	return ViewHome, fmt.Errorf("unknown view %q (want home, research, papers or assistant)", raw)
}

// Next and Prev cycle through views in tab order.
func (v View) Next() View {
	return View((int(v) + 1) % len(viewNames))
}

func (v View) Prev() View {
	return View((int(v) + len(viewNames) - 1) % len(viewNames))
}

// Effect is the work a view switch asks the model to start.
type Effect int

const (
	EffectNone Effect = iota
	EffectAggregate
	EffectLoadPapers
)

// Transition reports the effect of making to the visible view. Home and
// research both show aggregated cards and re-aggregate on every entry.
func Transition(to View) Effect {
	switch to {
	case ViewHome, ViewResearch:
		return EffectAggregate
	case ViewPapers:
		return EffectLoadPapers
	default:
		return EffectNone
	}
}

// Overlay is the single detail panel. It holds either a card or a paper,
// and Show/ShowPaper replace whatever it held.
type Overlay struct {
	item    content.DisplayItem
	paper   crossref.Paper
	isPaper bool
	visible bool
	scroll  int
}

func (o *Overlay) Show(item content.DisplayItem) {
	*o = Overlay{item: item, visible: true}
}

func (o *Overlay) ShowPaper(p crossref.Paper) {
	*o = Overlay{paper: p, isPaper: true, visible: true}
}

func (o *Overlay) Dismiss() {
	o.visible = false
	o.scroll = 0
}

func (o Overlay) Visible() bool {
	return o.visible
}

// Item is the card on display. It reports false while a paper is shown.
func (o Overlay) Item() (content.DisplayItem, bool) {
	return o.item, !o.isPaper
}

func (o Overlay) Paper() (crossref.Paper, bool) {
	return o.paper, o.isPaper
}

// Link is the original URL of whatever the overlay holds.
func (o Overlay) Link() string {
	if o.isPaper {
		return o.paper.Link
	}
	return o.item.Link
}

func (o Overlay) Scroll() int {
	return o.scroll
}

func (o *Overlay) ScrollBy(delta, maxScroll int) {
	o.scroll = ClampCursor(o.scroll+delta, maxScroll+1)
}

// Rect is a screen region in cells.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// OverlayBounds centers a box of at most boxW x boxH inside the screen.
func OverlayBounds(screenW, screenH, boxW, boxH int) Rect {
	if boxW > screenW {
		boxW = screenW
	}
	if boxH > screenH {
		boxH = screenH
	}
	return Rect{
		X: (screenW - boxW) / 2,
		Y: (screenH - boxH) / 2,
		W: boxW,
		H: boxH,
	}
}

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}
