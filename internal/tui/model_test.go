package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/spacedeck/internal/app"
	"github.com/glabrego/spacedeck/internal/chat"
	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
	"github.com/glabrego/spacedeck/internal/tui/actions"
	"github.com/glabrego/spacedeck/internal/tui/state"
)

type fakeService struct {
	mu         sync.Mutex
	items      []content.DisplayItem
	papers     app.PaperList
	answer     string
	askErr     error
	aggregates int
	paperCalls int
	asks       []string
	saved      []app.UIPreferences
}

func (f *fakeService) Aggregate(_ context.Context, filter content.Filter) []content.DisplayItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggregates++
	return content.Apply(f.items, filter)
}

func (f *fakeService) LoadPapers(_ context.Context, query string) app.PaperList {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paperCalls++
	list := f.papers
	list.Query = query
	return list
}

func (f *fakeService) Ask(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asks = append(f.asks, prompt)
	if f.askErr != nil {
		return "", f.askErr
	}
	return f.answer, nil
}

func (f *fakeService) SaveUIPreferences(_ context.Context, prefs app.UIPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, prefs)
	return nil
}

func sampleItems() []content.DisplayItem {
	items := []content.DisplayItem{
		{Title: "Comet over Chile", Source: content.SourceNASA, Summary: "A bright comet.", Link: "https://apod.nasa.gov/apod/ap261018.html", Image: "https://apod.nasa.gov/c.jpg"},
		{Title: "Linkless note", Source: content.SourceESA, Summary: "Nothing to open."},
	}
	return append(items, content.StaticEntries()...)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collectMsgs runs cmd and any batched children, skipping ticks that would
// block on timers.
func collectMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(t, c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func feed(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collectMsgs(t, cmd) {
		switch msg.(type) {
		case actions.AggregateDoneMsg, actions.PapersLoadedMsg, actions.AssistantReplyMsg,
			actions.PreferencesSavedMsg, actions.OpenURLSuccessMsg, actions.OpenURLErrorMsg,
			actions.ImagePreviewMsg:
			updated, _ := m.Update(msg)
			m = updated.(Model)
		}
	}
	return m
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func newLoadedModel(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := NewModel(svc, nil)
	m.stubPlatform()
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return feed(t, m, actions.AggregateCmd(svc, m.aggSeq, m.filter))
}

func (m *Model) stubPlatform() {
	m.openURLFn = func(string) error { return nil }
	m.copyURLFn = func(string) error { return nil }
}

func TestModelInit_AggregatesHome(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := NewModel(svc, nil)
	if m.view != state.ViewHome {
		t.Fatalf("expected home view initially, got %s", m.view)
	}

	m = feed(t, m, m.Init())
	if svc.aggregates != 1 {
		t.Fatalf("expected one aggregation on init, got %d", svc.aggregates)
	}
	if len(m.items) != 3 || m.cardsLoading {
		t.Fatalf("unexpected cards state: %d items loading=%v", len(m.items), m.cardsLoading)
	}

	view := m.View()
	for _, want := range []string{"Comet over Chile", "ISRO Updates", "enter open", "no original link"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got: %s", want, view)
		}
	}
}

func TestModelUpdate_NavigationTriggersEffects(t *testing.T) {
	svc := &fakeService{items: sampleItems(), papers: app.PaperList{Papers: []crossref.Paper{{Title: "Dust on Mars"}}}}
	m := newLoadedModel(t, svc)

	m, cmd := press(t, m, keyRunes("3"))
	if m.view != state.ViewPapers || !m.papersLoading {
		t.Fatalf("expected papers view loading, got %s loading=%v", m.view, m.papersLoading)
	}
	m = feed(t, m, cmd)
	if svc.paperCalls != 1 || len(m.papers) != 1 {
		t.Fatalf("expected one paper load, got calls=%d papers=%d", svc.paperCalls, len(m.papers))
	}
	if !strings.Contains(m.View(), "Dust on Mars") {
		t.Fatalf("expected paper in view, got: %s", m.View())
	}

	m, cmd = press(t, m, keyRunes("4"))
	if m.view != state.ViewAssistant || cmd != nil {
		t.Fatalf("expected assistant view with no effect, got %s cmd=%v", m.view, cmd != nil)
	}

	m, cmd = press(t, m, keyRunes("2"))
	m = feed(t, m, cmd)
	if m.view != state.ViewResearch || svc.aggregates != 2 {
		t.Fatalf("expected research re-aggregation, got %s aggregates=%d", m.view, svc.aggregates)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.view != state.ViewHome {
		t.Fatalf("expected shift+tab to go home, got %s", m.view)
	}
}

func TestModelUpdate_StaleAggregationDropped(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)

	m, first := press(t, m, keyRunes("r"))
	m, second := press(t, m, keyRunes("r"))

	firstMsgs := collectMsgs(t, first)
	secondMsgs := collectMsgs(t, second)

	svc.items = nil
	stale := firstMsgs[0].(actions.AggregateDoneMsg)
	stale.Items = []content.DisplayItem{{Title: "stale"}}
	m, _ = press(t, m, stale)
	if !m.cardsLoading {
		t.Fatal("stale pass must not finish loading")
	}

	m, _ = press(t, m, secondMsgs[0])
	if m.cardsLoading || len(m.items) != 3 {
		t.Fatalf("expected current pass applied, got loading=%v items=%d", m.cardsLoading, len(m.items))
	}
}

func TestModelUpdate_SourceFilterCycles(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)

	m, cmd := press(t, m, keyRunes("f"))
	m = feed(t, m, cmd)
	if m.filter.Source != "NASA" || len(m.items) != 1 {
		t.Fatalf("expected NASA-only cards, got source=%q items=%d", m.filter.Source, len(m.items))
	}

	m, cmd = press(t, m, keyRunes("f"))
	m = feed(t, m, cmd)
	if m.filter.Source != "ISRO" || len(m.items) != 1 || m.items[0].Title != "ISRO Updates" {
		t.Fatalf("expected ISRO-only cards, got %+v", m.items)
	}

	m, cmd = press(t, m, keyRunes("1"))
	m = feed(t, m, cmd)
	if !m.filter.IsZero() || len(m.items) != 3 {
		t.Fatalf("expected filter reset on view entry, got %+v items=%d", m.filter, len(m.items))
	}
}

func TestModelUpdate_SearchSubmitsQuery(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)

	m, _ = press(t, m, keyRunes("/"))
	m, _ = press(t, m, keyRunes("comet"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = feed(t, m, cmd)

	if m.filter.Query != "comet" || len(m.items) != 1 {
		t.Fatalf("expected one comet card, got query=%q items=%d", m.filter.Query, len(m.items))
	}
	if m.inputMode != inputNone {
		t.Fatal("expected input blurred after submit")
	}
}

func TestModelUpdate_OverlayShowAndDismiss(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if item, ok := m.overlay.Item(); !m.overlay.Visible() || !ok || item.Title != "Comet over Chile" {
		t.Fatalf("expected overlay for first card, got %+v", item)
	}
	if !strings.Contains(m.View(), "Open original: https://apod.nasa.gov/apod/ap261018.html") {
		t.Fatalf("expected original link in overlay, got: %s", m.View())
	}

	m, _ = press(t, m, keyRunes("x"))
	if m.overlay.Visible() {
		t.Fatal("expected x to dismiss overlay")
	}

	m, _ = press(t, m, keyRunes("j"))
	m, _ = press(t, m, keyRunes("j"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if item, _ := m.overlay.Item(); item.Title != "ISRO Updates" {
		t.Fatalf("expected overlay content replaced, got %q", item.Title)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.overlay.Visible() {
		t.Fatal("expected esc to dismiss overlay")
	}
}

func TestModelUpdate_PaperOverlayKeepsCardSourcesClosed(t *testing.T) {
	paper := crossref.Paper{Title: "Dust on Mars", Authors: []string{"Smith"}, Year: 2021, Snippet: "Storms...", Link: "https://doi.org/10.1/x"}
	svc := &fakeService{items: sampleItems(), papers: app.PaperList{Papers: []crossref.Paper{paper}}}
	m := newLoadedModel(t, svc)

	for i := range m.items {
		m.cursor = i
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		item, ok := m.overlay.Item()
		if !ok {
			t.Fatalf("expected a card in the overlay for cursor %d", i)
		}
		if _, err := content.ParseSource(string(item.Source)); err != nil {
			t.Fatalf("card %q has unknown source: %v", item.Title, err)
		}
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	}

	m, cmd := press(t, m, keyRunes("3"))
	m = feed(t, m, cmd)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if _, ok := m.overlay.Item(); ok {
		t.Fatal("a paper must not be shown as a card")
	}
	got, ok := m.overlay.Paper()
	if !m.overlay.Visible() || !ok || got.Title != "Dust on Mars" {
		t.Fatalf("expected paper overlay, got %+v ok=%v", got, ok)
	}
	screen := m.View()
	for _, want := range []string{"Smith • 2021", "Source: Crossref", "Open original: https://doi.org/10.1/x"} {
		if !strings.Contains(screen, want) {
			t.Fatalf("expected %q in paper overlay, got: %s", want, screen)
		}
	}

	m, cmd = press(t, m, keyRunes("o"))
	m = feed(t, m, cmd)
	if m.status != "Opened original in browser" {
		t.Fatalf("expected paper link opened, got status %q warning %q", m.status, m.warning)
	}
}

func TestModelUpdate_BackdropClickDismisses(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)
	m, _ = press(t, m, keyRunes("G"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	_, bounds := m.overlayScreen()
	inside := tea.MouseMsg{X: bounds.X + bounds.W/2, Y: bounds.Y + bounds.H/2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m, _ = press(t, m, inside)
	if !m.overlay.Visible() {
		t.Fatal("click inside the box must not dismiss")
	}

	outside := tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m, _ = press(t, m, outside)
	if m.overlay.Visible() {
		t.Fatal("click on the backdrop must dismiss")
	}
}

func TestModelUpdate_OpenWithoutLinkWarns(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)
	opened := 0
	m.openURLFn = func(string) error { opened++; return nil }

	m, _ = press(t, m, keyRunes("j"))
	m, _ = press(t, m, keyRunes("o"))
	if m.warning != "Item has no original link" {
		t.Fatalf("expected missing link warning, got %q", m.warning)
	}

	m, _ = press(t, m, keyRunes("k"))
	m, cmd := press(t, m, keyRunes("o"))
	m = feed(t, m, cmd)
	if opened != 1 || m.status != "Opened original in browser" {
		t.Fatalf("expected browser open, got opened=%d status=%q", opened, m.status)
	}
}

func TestModelUpdate_ChatBlankIsNoop(t *testing.T) {
	svc := &fakeService{answer: "Hi!"}
	m := newLoadedModel(t, svc)
	m, _ = press(t, m, keyRunes("4"))
	m, _ = press(t, m, keyRunes("i"))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.chat.Len() != 0 {
		t.Fatalf("blank send must not append or ask, got len=%d", m.chat.Len())
	}
	m, _ = press(t, m, keyRunes("   "))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.chat.Len() != 0 {
		t.Fatalf("whitespace send must not append or ask, got len=%d", m.chat.Len())
	}
}

func TestModelUpdate_ChatResolvesPlaceholder(t *testing.T) {
	svc := &fakeService{answer: "Hi!"}
	m := newLoadedModel(t, svc)
	m, _ = press(t, m, keyRunes("4"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, keyRunes("hello"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	msgs := m.chat.Messages()
	if len(msgs) != 2 || msgs[0].Text != "hello" || msgs[1].Text != chat.PendingText {
		t.Fatalf("unexpected pending log: %+v", msgs)
	}
	if !strings.Contains(m.View(), chat.PendingText) {
		t.Fatalf("expected pending text in view, got: %s", m.View())
	}

	m = feed(t, m, cmd)
	msgs = m.chat.Messages()
	if len(msgs) != 2 || msgs[1].Text != "Hi!" || msgs[1].Pending {
		t.Fatalf("expected resolved reply, got %+v", msgs)
	}
	if len(svc.asks) != 1 || svc.asks[0] != "hello" {
		t.Fatalf("unexpected asks: %v", svc.asks)
	}
}

func TestModelUpdate_OverlappingChatRepliesResolveOwnPlaceholder(t *testing.T) {
	svc := &fakeService{answer: "answer"}
	m := newLoadedModel(t, svc)
	m, _ = press(t, m, keyRunes("4"))
	m, _ = press(t, m, keyRunes("i"))

	m, _ = press(t, m, keyRunes("first"))
	m, firstCmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, keyRunes("second"))
	m, secondCmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	svc.askErr = errors.New("backend down")
	m = feed(t, m, secondCmd)
	svc.askErr = nil
	m = feed(t, m, firstCmd)

	msgs := m.chat.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected four messages, got %+v", msgs)
	}
	if msgs[1].Text != "answer" || msgs[3].Text != chat.ErrorText {
		t.Fatalf("replies resolved the wrong placeholders: %+v", msgs)
	}
	if m.chat.PendingCount() != 0 {
		t.Fatal("expected no pending messages")
	}
}

func TestModelUpdate_PapersFailureRow(t *testing.T) {
	svc := &fakeService{items: sampleItems(), papers: app.PaperList{Failed: true, Err: errors.New("network")}}
	m := newLoadedModel(t, svc)
	m, cmd := press(t, m, keyRunes("3"))
	m = feed(t, m, cmd)

	view := m.View()
	if strings.Count(view, "Failed to load papers.") != 1 {
		t.Fatalf("expected single failure row, got: %s", view)
	}
	if m.warning == "" {
		t.Fatal("expected warning status for failed paper search")
	}
}

func TestModelUpdate_PaperQuery(t *testing.T) {
	svc := &fakeService{papers: app.PaperList{Papers: []crossref.Paper{}}}
	m := newLoadedModel(t, svc)
	m, cmd := press(t, m, keyRunes("3"))
	m = feed(t, m, cmd)

	m, _ = press(t, m, keyRunes("/"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m, _ = press(t, m, keyRunes("exoplanets"))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = feed(t, m, cmd)

	if m.paperQuery != "exoplanets" || svc.paperCalls != 2 {
		t.Fatalf("expected second search for exoplanets, got %q calls=%d", m.paperQuery, svc.paperCalls)
	}
	if !strings.Contains(m.View(), "No results") {
		t.Fatalf("expected empty placeholder, got: %s", m.View())
	}
}

func TestModelUpdate_PreferencesPersisted(t *testing.T) {
	svc := &fakeService{items: sampleItems()}
	m := newLoadedModel(t, svc)
	m.EnablePreferencePersistence()

	m, cmd := press(t, m, keyRunes("3"))
	m = feed(t, m, cmd)
	m, cmd = press(t, m, keyRunes("f"))
	m = feed(t, m, cmd)
	if len(svc.saved) != 0 {
		t.Fatalf("view switches must not save preferences, got %+v", svc.saved)
	}

	m, _ = press(t, m, keyRunes("/"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m, _ = press(t, m, keyRunes("jwst"))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	feed(t, m, cmd)

	if len(svc.saved) != 1 || svc.saved[0].PaperQuery != "jwst" {
		t.Fatalf("unexpected saved preferences: %+v", svc.saved)
	}
}

func TestApplyPreferences_RestoresPaperQueryOnly(t *testing.T) {
	m := NewModel(nil, nil)
	m.ApplyPreferences(app.UIPreferences{PaperQuery: "comets"})
	if m.paperQuery != "comets" {
		t.Fatalf("paper query not applied: %q", m.paperQuery)
	}
	if m.view != state.ViewHome {
		t.Fatalf("initial view is %s, want home", m.view)
	}
	if !m.filter.IsZero() || m.filter.Source != "" {
		t.Fatalf("expected zero filter, got %+v", m.filter)
	}

	m = NewModel(nil, nil)
	m.ApplyPreferences(app.UIPreferences{PaperQuery: "   "})
	if m.paperQuery != "space" {
		t.Fatalf("blank query should keep the default, got %q", m.paperQuery)
	}
}

func TestSetInitialView_OnlyWayToStartElsewhere(t *testing.T) {
	svc := &fakeService{papers: app.PaperList{Papers: []crossref.Paper{{Title: "Dust on Mars"}}}}
	m := NewModel(svc, nil)
	m.ApplyPreferences(app.UIPreferences{PaperQuery: "mars"})
	m.SetInitialView(state.ViewPapers)
	m = feed(t, m, m.Init())

	if m.view != state.ViewPapers || svc.paperCalls != 1 || svc.aggregates != 0 {
		t.Fatalf("expected papers start, got %s papers=%d aggregates=%d", m.view, svc.paperCalls, svc.aggregates)
	}
}

func TestModelUpdate_HelpToggle(t *testing.T) {
	m := NewModel(nil, nil)
	m, _ = press(t, m, keyRunes("?"))
	if !strings.Contains(m.View(), "spacedeck help") {
		t.Fatalf("expected help view, got: %s", m.View())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Fatal("expected esc to close help")
	}
}
