package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/glabrego/spacedeck/internal/app"
	"github.com/glabrego/spacedeck/internal/chat"
	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
	"github.com/glabrego/spacedeck/internal/logging"
	"github.com/glabrego/spacedeck/internal/tui/actions"
	"github.com/glabrego/spacedeck/internal/tui/platform"
	"github.com/glabrego/spacedeck/internal/tui/state"
	tuitheme "github.com/glabrego/spacedeck/internal/tui/theme"
	"github.com/glabrego/spacedeck/internal/tui/view"
)

const (
	headerLines   = 2
	footerLines   = 4
	statusTimeout = 3 * time.Second
	warnTimeout   = 4 * time.Second
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputPaperQuery
	inputChat
)

type clearStatusMsg struct {
	id int
}

type Model struct {
	service actions.Service
	logger  *log.Logger
	theme   tuitheme.Theme
	md      *view.Markdown

	view     state.View
	overlay  state.Overlay
	showHelp bool
	width    int
	height   int

	items        []content.DisplayItem
	cursor       int
	filter       content.Filter
	aggSeq       int
	cardsLoading bool

	papers        []crossref.Paper
	paperQuery    string
	paperCursor   int
	paperSeq      int
	papersLoading bool
	papersFailed  bool

	chat *chat.Log

	input     textinput.Model
	inputMode inputMode
	spinner   spinner.Model

	status   string
	statusID int
	warning  string

	persistPrefs bool

	openURLFn           func(string) error
	copyURLFn           func(string) error
	renderImageFn       func(string, int) (string, error)
	imagePreviewEnabled bool
	imagePreview        map[string]string
	imagePreviewErr     map[string]string
	imagePreviewLoading map[string]bool
	clearGraphics       bool
}

func NewModel(service actions.Service, logger *log.Logger) Model {
	if logger == nil {
		logger = logging.Discard()
	}
	ti := textinput.New()
	ti.CharLimit = 512
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		service:             service,
		logger:              logger,
		theme:               tuitheme.Default(),
		md:                  view.NewMarkdown("dark"),
		view:                state.ViewHome,
		cardsLoading:        true,
		paperQuery:          crossref.DefaultQuery,
		chat:                chat.NewLog(),
		input:               ti,
		spinner:             sp,
		openURLFn:           platform.OpenURLInBrowser,
		copyURLFn:           platform.CopyURLToClipboard,
		imagePreview:        make(map[string]string),
		imagePreviewErr:     make(map[string]string),
		imagePreviewLoading: make(map[string]bool),
	}
}

// SetImageRenderer enables inline previews in the detail overlay.
func (m *Model) SetImageRenderer(fn func(string, int) (string, error)) {
	m.renderImageFn = fn
	m.imagePreviewEnabled = fn != nil
}

// ApplyPreferences restores the last paper query. The start view and the
// card filter are never restored: every run starts on home with no filter.
func (m *Model) ApplyPreferences(prefs app.UIPreferences) {
	if q := strings.TrimSpace(prefs.PaperQuery); q != "" {
		m.paperQuery = q
	}
}

func (m *Model) SetInitialView(v state.View) {
	m.view = v
	m.cardsLoading = state.Transition(v) == state.EffectAggregate
	m.papersLoading = state.Transition(v) == state.EffectLoadPapers
}

// EnablePreferencePersistence saves the paper query whenever one is
// submitted.
func (m *Model) EnablePreferencePersistence() {
	m.persistPrefs = true
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.service != nil {
		switch state.Transition(m.view) {
		case state.EffectAggregate:
			cmds = append(cmds, actions.AggregateCmd(m.service, m.aggSeq, m.filter))
		case state.EffectLoadPapers:
			cmds = append(cmds, actions.LoadPapersCmd(m.service, m.paperSeq, m.paperQuery))
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)

	case actions.AggregateDoneMsg:
		if msg.Seq != m.aggSeq {
			m.logger.Debug("dropping stale aggregation pass", "seq", msg.Seq, "current", m.aggSeq)
			return m, nil
		}
		m.items = msg.Items
		m.cardsLoading = false
		m.cursor = state.ClampCursor(m.cursor, len(m.items))
		m.logger.Info("aggregation pass done", "seq", msg.Seq, "items", len(msg.Items), "took", msg.Duration)
		return m.setStatus(fmt.Sprintf("Loaded %d cards in %s", len(m.items), msg.Duration.Round(time.Millisecond)))
	case actions.PapersLoadedMsg:
		if msg.Seq != m.paperSeq {
			m.logger.Debug("dropping stale paper search", "seq", msg.Seq, "current", m.paperSeq)
			return m, nil
		}
		m.papers = msg.List.Papers
		m.papersFailed = msg.List.Failed
		m.papersLoading = false
		m.paperCursor = state.ClampCursor(m.paperCursor, len(m.papers))
		if msg.List.Failed {
			return m.setWarning("Paper search failed")
		}
		return m.setStatus(fmt.Sprintf("Loaded %d papers for %q", len(m.papers), msg.List.Query))
	case actions.AssistantReplyMsg:
		if msg.Err != nil {
			m.logger.Error("assistant reply failed", "id", msg.ID, "err", msg.Err)
			m.chat.Fail(msg.ID)
			return m, nil
		}
		if !m.chat.Resolve(msg.ID, msg.Answer) {
			m.logger.Warn("assistant reply for unknown or resolved message", "id", msg.ID)
		}
		return m, nil
	case actions.PreferencesSavedMsg:
		if msg.Err != nil {
			m.logger.Warn("saving ui preferences failed", "err", msg.Err)
		}
		return m, nil
	case actions.ImagePreviewMsg:
		delete(m.imagePreviewLoading, msg.URL)
		if msg.Err != nil {
			m.imagePreviewErr[msg.URL] = msg.Err.Error()
			return m, nil
		}
		m.imagePreview[msg.URL] = msg.Output
		delete(m.imagePreviewErr, msg.URL)
		return m, nil
	case actions.OpenURLSuccessMsg:
		return m.setStatus(msg.Status)
	case actions.OpenURLErrorMsg:
		return m.setWarning(msg.Err.Error())
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.warning = ""
		}
		return m, nil
	}

	if m.inputMode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.inputMode != inputNone {
		return m.handleInputKey(msg)
	}

	if m.showHelp {
		switch key {
		case "?", "esc":
			m.showHelp = false
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.overlay.Visible() {
		return m.handleOverlayKey(key)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "1", "2", "3", "4":
		return m.switchView(state.Views()[int(key[0]-'1')])
	case "tab":
		return m.switchView(m.view.Next())
	case "shift+tab":
		return m.switchView(m.view.Prev())
	case "r":
		return m.reload()
	}

	switch m.view {
	case state.ViewHome, state.ViewResearch:
		return m.handleCardsKey(key)
	case state.ViewPapers:
		return m.handlePapersKey(key)
	case state.ViewAssistant:
		if key == "i" || key == "enter" {
			return m.focusInput(inputChat, "")
		}
	}
	return m, nil
}

func (m Model) handleCardsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		m.cursor = state.ClampCursor(m.cursor+1, len(m.items))
	case "k", "up":
		m.cursor = state.ClampCursor(m.cursor-1, len(m.items))
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = state.ClampCursor(len(m.items)-1, len(m.items))
	case "enter":
		if item, ok := m.currentCard(); ok {
			return m.showOverlay(item)
		}
	case "o":
		if item, ok := m.currentCard(); ok {
			return m.openLink(item.Link)
		}
	case "y":
		if item, ok := m.currentCard(); ok {
			return m.copyLink(item.Link)
		}
	case "/":
		return m.focusInput(inputSearch, m.filter.Query)
	case "f":
		m.filter.Source = content.NextSourceFilter(m.filter.Source)
		return m.startAggregation()
	case "ctrl+l":
		if m.filter.IsZero() {
			return m, nil
		}
		m.filter = content.Filter{}
		return m.startAggregation()
	}
	return m, nil
}

func (m Model) handlePapersKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		m.paperCursor = state.ClampCursor(m.paperCursor+1, len(m.papers))
	case "k", "up":
		m.paperCursor = state.ClampCursor(m.paperCursor-1, len(m.papers))
	case "enter":
		if p, ok := m.currentPaper(); ok {
			m.overlay.ShowPaper(p)
			m.clearGraphics = false
			return m, nil
		}
	case "o":
		if p, ok := m.currentPaper(); ok {
			return m.openLink(p.Link)
		}
	case "y":
		if p, ok := m.currentPaper(); ok {
			return m.copyLink(p.Link)
		}
	case "/":
		return m.focusInput(inputPaperQuery, m.paperQuery)
	}
	return m, nil
}

func (m Model) handleOverlayKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "x", "backspace":
		m.dismissOverlay()
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.overlay.ScrollBy(1, m.overlayMaxTop())
	case "k", "up":
		m.overlay.ScrollBy(-1, m.overlayMaxTop())
	case "pgdown", " ":
		m.overlay.ScrollBy(view.OverlayMaxBodyLines(m.height), m.overlayMaxTop())
	case "pgup":
		m.overlay.ScrollBy(-view.OverlayMaxBodyLines(m.height), m.overlayMaxTop())
	case "o":
		return m.openLink(m.overlay.Link())
	case "y":
		return m.copyLink(m.overlay.Link())
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.blurInput()
		return m, nil
	case "enter":
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.overlay.Visible() {
		return m, nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		m.overlay.ScrollBy(1, m.overlayMaxTop())
	case msg.Button == tea.MouseButtonWheelUp:
		m.overlay.ScrollBy(-1, m.overlayMaxTop())
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		_, bounds := m.overlayScreen()
		if !bounds.Contains(msg.X, msg.Y) {
			m.dismissOverlay()
		}
	}
	return m, nil
}

func (m Model) switchView(to state.View) (tea.Model, tea.Cmd) {
	m.view = to
	m.dismissOverlay()
	m.showHelp = false
	m.logger.Debug("view switch", "view", to.String())

	var cmd tea.Cmd
	var model tea.Model = m
	switch state.Transition(to) {
	case state.EffectAggregate:
		m.filter = content.Filter{}
		m.cursor = 0
		model, cmd = m.startAggregation()
	case state.EffectLoadPapers:
		model, cmd = m.startPaperSearch(m.paperQuery)
	}
	return model, cmd
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	switch state.Transition(m.view) {
	case state.EffectAggregate:
		return m.startAggregation()
	case state.EffectLoadPapers:
		return m.startPaperSearch(m.paperQuery)
	}
	return m, nil
}

// startAggregation begins a new pass. Any pass still in flight becomes
// stale and its result is dropped on arrival.
func (m Model) startAggregation() (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, nil
	}
	m.aggSeq++
	m.cardsLoading = true
	m.cursor = 0
	m.status = "Loading space news..."
	return m, actions.AggregateCmd(m.service, m.aggSeq, m.filter)
}

func (m Model) startPaperSearch(query string) (tea.Model, tea.Cmd) {
	query = strings.TrimSpace(query)
	if query == "" {
		query = crossref.DefaultQuery
	}
	m.paperQuery = query
	if m.service == nil {
		return m, nil
	}
	m.paperSeq++
	m.papersLoading = true
	m.papersFailed = false
	m.paperCursor = 0
	m.status = view.PapersLoadingText
	return m, actions.LoadPapersCmd(m.service, m.paperSeq, query)
}

func (m Model) focusInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	switch mode {
	case inputSearch:
		m.input.Prompt = "search: "
		m.input.Placeholder = "title or summary"
	case inputPaperQuery:
		m.input.Prompt = "papers: "
		m.input.Placeholder = crossref.DefaultQuery
	case inputChat:
		m.input.Prompt = "> "
		m.input.Placeholder = "Ask about space..."
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m *Model) blurInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.Reset()
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	switch m.inputMode {
	case inputSearch:
		m.blurInput()
		m.filter.Query = strings.TrimSpace(value)
		return m.startAggregation()
	case inputPaperQuery:
		m.blurInput()
		model, cmd := m.startPaperSearch(value)
		next := model.(Model)
		return next, tea.Batch(cmd, next.savePreferencesCmd())
	case inputChat:
		id, ok := m.chat.Send(value)
		if !ok {
			return m, nil
		}
		m.input.Reset()
		if m.service == nil {
			m.chat.Fail(id)
			return m, nil
		}
		return m, actions.AskCmd(m.service, id, value)
	}
	return m, nil
}

func (m Model) showOverlay(item content.DisplayItem) (tea.Model, tea.Cmd) {
	m.overlay.Show(item)
	m.clearGraphics = false
	return m, m.ensureImagePreviewCmd(item)
}

func (m *Model) dismissOverlay() {
	if !m.overlay.Visible() {
		return
	}
	if item, ok := m.overlay.Item(); ok && item.Image != "" {
		m.clearGraphics = view.ContainsKittyGraphicsEscape(m.imagePreview[item.Image])
	}
	m.overlay.Dismiss()
}

func (m *Model) ensureImagePreviewCmd(item content.DisplayItem) tea.Cmd {
	if !m.imagePreviewEnabled || item.Image == "" {
		return nil
	}
	url := item.Image
	if _, ok := m.imagePreview[url]; ok {
		return nil
	}
	if m.imagePreviewLoading[url] {
		return nil
	}
	m.imagePreviewLoading[url] = true
	delete(m.imagePreviewErr, url)
	return actions.ImagePreviewCmd(url, view.OverlayInnerWidth(m.width), m.renderImageFn)
}

func (m Model) openLink(raw string) (tea.Model, tea.Cmd) {
	url, err := platform.ValidateURL(raw)
	if err != nil {
		return m.setWarning(capitalize(err.Error()))
	}
	return m, actions.OpenURLCmd(url, m.openURLFn, m.copyURLFn)
}

func (m Model) copyLink(raw string) (tea.Model, tea.Cmd) {
	url, err := platform.ValidateURL(raw)
	if err != nil {
		return m.setWarning(capitalize(err.Error()))
	}
	return m, actions.CopyURLCmd(url, m.copyURLFn)
}

func (m Model) setStatus(status string) (tea.Model, tea.Cmd) {
	m.status = status
	m.warning = ""
	m.statusID++
	return m, clearStatusCmd(m.statusID, statusTimeout)
}

func (m Model) setWarning(warning string) (tea.Model, tea.Cmd) {
	m.status = ""
	m.warning = warning
	m.statusID++
	return m, clearStatusCmd(m.statusID, warnTimeout)
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m Model) savePreferencesCmd() tea.Cmd {
	if !m.persistPrefs || m.service == nil {
		return nil
	}
	return actions.SavePreferencesCmd(m.service, m.preferences())
}

func (m Model) preferences() app.UIPreferences {
	return app.UIPreferences{PaperQuery: m.paperQuery}
}

func (m Model) currentCard() (content.DisplayItem, bool) {
	if len(m.items) == 0 {
		return content.DisplayItem{}, false
	}
	return m.items[state.ClampCursor(m.cursor, len(m.items))], true
}

func (m Model) currentPaper() (crossref.Paper, bool) {
	if len(m.papers) == 0 {
		return crossref.Paper{}, false
	}
	return m.papers[state.ClampCursor(m.paperCursor, len(m.papers))], true
}

func (m Model) loading() bool {
	switch state.Transition(m.view) {
	case state.EffectAggregate:
		return m.cardsLoading
	case state.EffectLoadPapers:
		return m.papersLoading
	}
	return m.chat.PendingCount() > 0
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m Model) bodyHeight() int {
	if m.height <= 0 {
		return 0
	}
	return max(3, m.height-headerLines-footerLines)
}

func (m Model) overlayLines() []string {
	if p, ok := m.overlay.Paper(); ok {
		return view.PaperDetailLines(p, view.OverlayInnerWidth(m.contentWidth()))
	}
	item, _ := m.overlay.Item()
	preview := view.InlineImagePreviewState{
		Enabled: m.imagePreviewEnabled && item.Image != "",
		Loading: m.imagePreviewLoading[item.Image],
		Raw:     m.imagePreview[item.Image],
		Err:     m.imagePreviewErr[item.Image],
	}
	return view.DetailLines(item, view.OverlayInnerWidth(m.contentWidth()), preview)
}

func (m Model) overlayMaxTop() int {
	return view.DetailMaxTop(len(m.overlayLines()), view.OverlayMaxBodyLines(m.screenHeight()))
}

func (m Model) screenHeight() int {
	if m.height <= 0 {
		return 24
	}
	return m.height
}

func (m Model) overlayScreen() (string, state.Rect) {
	return view.RenderOverlay(m.overlayLines(), m.overlay.Scroll(), m.contentWidth(), m.screenHeight(), m.theme)
}

func (m Model) View() string {
	prefix := ""
	if m.clearGraphics && !m.overlay.Visible() {
		prefix = view.ClearKittyGraphicsSequence()
	}
	if m.overlay.Visible() {
		screen, _ := m.overlayScreen()
		return screen
	}
	if m.showHelp {
		return prefix + m.helpView()
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(view.Tabs(m.view, m.theme))
	b.WriteString("\n\n")
	b.WriteString(m.body())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) body() string {
	width := m.contentWidth()
	switch m.view {
	case state.ViewPapers:
		out := view.RenderPapers(view.PapersInput{
			Query:   m.paperQuery,
			Papers:  m.papers,
			Loading: m.papersLoading,
			Failed:  m.papersFailed,
			Cursor:  m.paperCursor,
			Width:   width,
		}, m.theme)
		if m.inputMode == inputPaperQuery {
			out = m.input.View() + "\n" + out
		}
		return out
	case state.ViewAssistant:
		input := m.theme.MetaLabel.Render("press i to type")
		if m.inputMode == inputChat {
			input = m.input.View()
		}
		return view.RenderChat(view.ChatInput{
			Messages: m.chat.Messages(),
			Width:    width,
			Height:   max(0, m.bodyHeight()-1),
			Input:    input,
		}, m.md, m.theme)
	default:
		out := view.RenderCards(view.CardsInput{
			Items:   m.items,
			Cursor:  m.cursor,
			Width:   width,
			Height:  m.bodyHeight(),
			Loading: m.cardsLoading,
			Filter:  m.filter,
		}, m.theme)
		if m.inputMode == inputSearch {
			out = m.input.View() + "\n" + out
		}
		return out
	}
}

func (m Model) footer() string {
	var lines []string
	if m.view == state.ViewHome || m.view == state.ViewResearch {
		lines = append(lines, view.FilterLine(m.filter, len(m.items), m.theme))
	}
	spin := ""
	if m.loading() {
		spin = m.spinner.View()
	}
	lines = append(lines,
		view.CompactMessage(m.loading(), m.warning != "", m.status, m.warning, spin, m.theme),
		m.theme.MetaLabel.Render(view.Toolbar(m.view, m.overlay.Visible(), m.inputMode != inputNone)),
	)
	return strings.Join(lines, "\n")
}

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("spacedeck help"))
	b.WriteString("\n\n")
	for _, line := range view.HelpLines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.MetaLabel.Render("press ? or esc to close"))
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
