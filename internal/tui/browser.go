// Package tui implements the interactive corpus browser behind the
// `secrules browse` command: a filterable writeup list beside a markdown
// preview pane, with locale switching for the bilingual corpus.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"secrules/internal/logging"
	"secrules/internal/rules"
	"secrules/internal/tui/helpers"
	"secrules/internal/tui/styles"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Filter       key.Binding
	Locale       key.Binding
	ToggleFormat key.Binding
	FocusLeft    key.Binding
	FocusRight   key.Binding
	Quit         key.Binding
}

// focusedPane identifies which pane (list or preview) has keyboard focus
type focusedPane int

const (
	focusList focusedPane = iota
	focusPreview
)

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Locale:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "switch locale")),
		ToggleFormat: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle rendering")),
		FocusLeft:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "focus list")),
		FocusRight:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "focus preview")),
		Quit:         key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Filter, k.Locale, k.ToggleFormat, k.FocusRight, k.FocusLeft, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Filter, k.Locale, k.ToggleFormat, k.FocusRight, k.FocusLeft, k.Quit},
	}
}

// ruleItem adapts one writeup to the list pane.
type ruleItem struct {
	rule rules.Rule
}

func (i ruleItem) Title() string { return i.rule.Label() }

func (i ruleItem) Description() string {
	if i.rule.Category != "" {
		return fmt.Sprintf("%s • %s", i.rule.Severity, i.rule.Category)
	}
	return string(i.rule.Severity)
}

func (i ruleItem) FilterValue() string { return i.rule.ID + " " + i.rule.Title }

// Browser is the two-pane corpus viewer: writeup list on the left, rendered
// preview on the right. The corpus is loaded before the browser starts, so
// every preview renders synchronously from memory.
type Browser struct {
	logger *logging.AppLogger
	corpus *rules.Corpus

	title    string
	subtitle string
	locale   string

	ruleList list.Model
	viewport viewport.Model
	keys     KeyMap
	help     help.Model

	windowWidth  int
	windowHeight int

	// Rendered previews keyed by writeup, format and width. The corpus is
	// small and immutable, so a plain map is enough; it is dropped on
	// resize because entries are wrapped for the old width.
	renderCache map[string]string

	useGlamour   bool
	glamourStyle string

	focusPane focusedPane
}

// detectGlamourStyle attempts to detect terminal background using termenv,
// but will respect GLAMOUR_STYLE if set to a concrete value (not "auto").
// A timeout ensures we never hang on terminals that don't respond.
func detectGlamourStyle(timeout time.Duration) string {
	// Default fallback if detection doesn't finish in time
	defaultStyle := "dark"

	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	type result struct{ style string }
	ch := make(chan result, 1)

	go func() {
		out := termenv.NewOutput(os.Stdout)
		if out.HasDarkBackground() {
			ch <- result{style: "dark"}
			return
		}
		ch <- result{style: "light"}
	}()

	select {
	case r := <-ch:
		return r.style
	case <-time.After(timeout):
		return defaultStyle
	}
}

func NewBrowser(title, subtitle string, corpus *rules.Corpus, locale string, ctx helpers.UIContext) Browser {
	if locale == "" && ctx.Config != nil {
		locale = ctx.Config.Locale
	}
	if locale == "" {
		locale = rules.DefaultLocale
	}

	// Seed pane sizes from the context; the first WindowSizeMsg recomputes
	// them. Zero dimensions would render empty panes until then.
	width, height := ctx.Width, ctx.Height
	if !ctx.HasValidDimensions() {
		width, height = 80, 24
	}

	ruleList := list.New(listItems(corpus.List(locale)), list.NewDefaultDelegate(), width, height)
	ruleList.Title = "Writeups"
	ruleList.SetShowStatusBar(false)
	ruleList.SetFilteringEnabled(true)
	ruleList.SetShowHelp(false)

	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true

	return Browser{
		logger:       ctx.Logger,
		corpus:       corpus,
		title:        title,
		subtitle:     subtitle,
		locale:       locale,
		ruleList:     ruleList,
		viewport:     vp,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		windowWidth:  ctx.Width,
		windowHeight: ctx.Height,
		renderCache:  make(map[string]string),
		useGlamour:   true,
		focusPane:    focusList,
	}
}

func (b *Browser) Init() tea.Cmd {
	// Detect the glamour style once (with timeout and env override) so
	// rendering never re-queries the terminal mid-session.
	if b.glamourStyle == "" {
		b.glamourStyle = detectGlamourStyle(50 * time.Millisecond)
		b.logger.Debug("Glamour style selected", "style", b.glamourStyle)
	}
	b.refreshPreview()
	return nil
}

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	var oldSelectedID string
	if item, ok := b.ruleList.SelectedItem().(ruleItem); ok {
		oldSelectedID = item.rule.ID
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.windowWidth = msg.Width
		b.windowHeight = msg.Height
		b.help.Width = msg.Width
		b.renderCache = make(map[string]string)
		b.resize()
		b.refreshPreview()
		b.logger.Debug("Window resized", "width", msg.Width, "height", msg.Height, "list_width", b.ruleList.Width(), "viewport_width", b.viewport.Width)
		return b, nil

	case tea.MouseMsg:
		// Always let the viewport handle mouse events (for wheel scrolling)
		b.viewport, cmd = b.viewport.Update(msg)
		return b, cmd

	case list.FilterMatchesMsg:
		b.ruleList, cmd = b.ruleList.Update(msg)
		return b, cmd

	case tea.KeyMsg:
		// The filter input owns the keyboard while typing. The list decides
		// when filtering ends (enter applies, esc cancels).
		if b.ruleList.FilterState() == list.Filtering {
			b.ruleList, cmd = b.ruleList.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			if b.ruleList.FilterState() != list.Filtering {
				b.refreshPreview()
			}
			return b, tea.Batch(cmds...)
		}

		// Focus switching
		if key.Matches(msg, b.keys.FocusRight) {
			b.focusPane = focusPreview
			return b, nil
		}
		if key.Matches(msg, b.keys.FocusLeft) {
			b.focusPane = focusList
			return b, nil
		}

		// When the preview has focus, route scroll keys to the viewport
		if b.focusPane == focusPreview {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "k", "j":
				b.viewport, cmd = b.viewport.Update(msg)
				return b, cmd
			}
		}

		switch {
		case key.Matches(msg, b.keys.Locale):
			b.cycleLocale()
			return b, nil

		case key.Matches(msg, b.keys.ToggleFormat):
			b.useGlamour = !b.useGlamour
			b.logger.Debug("Toggled markdown rendering", "glamour", b.useGlamour)
			b.refreshPreview()
			return b, nil

		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit

		default:
			// Forward all other keys to the list
			b.ruleList, cmd = b.ruleList.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			if item, ok := b.ruleList.SelectedItem().(ruleItem); ok && item.rule.ID != oldSelectedID {
				b.refreshPreview()
			}
			return b, tea.Batch(cmds...)
		}
	}

	return b, tea.Batch(cmds...)
}

func (b *Browser) View() string {
	// Focus-aware pane styles using centralized styles
	listStyle := styles.PaneStyle
	vpStyle := styles.PaneStyle
	switch b.focusPane {
	case focusList:
		listStyle = styles.PaneFocusedStyle
	case focusPreview:
		vpStyle = styles.PaneFocusedStyle
	}

	// Respect sizes computed in resize
	listStyle = listStyle.Width(b.ruleList.Width()).Height(b.ruleList.Height())
	vpStyle = vpStyle.Width(b.viewport.Width).Height(b.viewport.Height)

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listStyle.Render(b.ruleList.View()),
		vpStyle.Render(b.viewport.View()),
	)
	panes = styles.MainContainerStyle.Render(panes)

	return lipgloss.JoinVertical(lipgloss.Left, b.headerView(), panes, b.statusView(), b.helpView())
}

func (b *Browser) headerView() string {
	header := styles.TitleStyle.Render(b.title)
	if b.subtitle != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, styles.SubtitleStyle.Render(b.subtitle))
	}
	return styles.HeaderContainerStyle.Render(header)
}

func (b *Browser) helpView() string {
	return styles.HelpContainerStyle.Render(styles.HelpStyle.Render(b.help.View(b.keys)))
}

// statusLine summarizes the selection and session state in one line.
func (b *Browser) statusLine() string {
	parts := make([]string, 0, 4)
	if item, ok := b.ruleList.SelectedItem().(ruleItem); ok {
		r := item.rule
		badge := styles.SeverityStyle(string(r.Severity)).Render(string(r.Severity))
		parts = append(parts, r.ID+" "+badge)
		if r.Category != "" {
			parts = append(parts, r.Category)
		}
		if r.Locale != b.locale {
			// The lookup fell back to the default locale for this writeup.
			parts = append(parts, "untranslated, showing "+r.Locale)
		}
	}
	parts = append(parts, "locale "+b.locale)
	if !b.useGlamour {
		parts = append(parts, "plain text")
	}
	return strings.Join(parts, " • ")
}

func (b *Browser) statusView() string {
	width := max(b.windowWidth-2, 20)
	return styles.StatusBarStyle.Render(wordwrap.String(b.statusLine(), width))
}

// resize recomputes pane sizes. Header, status and help heights are
// measured from the same styles View uses so the layout never clips.
func (b *Browser) resize() {
	frameW, frameH := styles.PaneStyle.GetFrameSize()
	totalExtras := frameW * 2

	const mainLeftMargin = 1
	avail := max(b.windowWidth-totalExtras-mainLeftMargin, 0)

	listWidth := avail / 3
	vpWidth := avail - listWidth
	if listWidth < 20 {
		listWidth = 20
	}
	if vpWidth < 30 {
		vpWidth = 30
	}

	headerH := lipgloss.Height(b.headerView())
	statusH := lipgloss.Height(b.statusView())
	helpH := lipgloss.Height(b.helpView())
	contentHeight := max(b.windowHeight-headerH-statusH-helpH-frameH, 5)

	b.ruleList.SetSize(listWidth, contentHeight)
	b.viewport.Width = vpWidth
	b.viewport.Height = contentHeight
}

// cycleLocale advances to the next locale in the corpus, keeping the
// selected position. The listing applies the default-locale fallback per
// writeup, so every ID stays visible in every locale.
func (b *Browser) cycleLocale() {
	locales := b.corpus.Locales()
	if len(locales) < 2 {
		return
	}

	next := locales[0]
	for i, loc := range locales {
		if loc == b.locale {
			next = locales[(i+1)%len(locales)]
			break
		}
	}
	b.locale = next

	idx := b.ruleList.Index()
	b.ruleList.SetItems(listItems(b.corpus.List(b.locale)))
	if count := len(b.ruleList.Items()); idx >= count {
		idx = max(count-1, 0)
	}
	b.ruleList.Select(idx)

	b.logger.Debug("Locale switched", "locale", b.locale)
	b.refreshPreview()
}

func listItems(rs []rules.Rule) []list.Item {
	items := make([]list.Item, len(rs))
	for i, r := range rs {
		items[i] = ruleItem{rule: r}
	}
	return items
}

// refreshPreview puts the selected writeup into the preview pane,
// rendering it on a cache miss.
func (b *Browser) refreshPreview() {
	item, ok := b.ruleList.SelectedItem().(ruleItem)
	if !ok {
		b.viewport.SetContent("No writeups match the current filter.")
		b.viewport.GotoTop()
		return
	}

	r := item.rule
	key := previewKey(r, b.useGlamour, b.viewport.Width)
	content, ok := b.renderCache[key]
	if !ok {
		content = b.renderPreview(r)
		b.renderCache[key] = content
	}
	b.viewport.SetContent(content)
	b.viewport.GotoTop()
}

func previewKey(r rules.Rule, glamourOn bool, width int) string {
	mode := "plain"
	if glamourOn {
		mode = "glamour"
	}
	return fmt.Sprintf("%s|%s|%s|%d", r.ID, r.Locale, mode, width)
}

// renderPreview renders one writeup for the viewport. Glamour failures
// fall back to word-wrapped plain markdown so the pane never goes blank.
func (b *Browser) renderPreview(r rules.Rule) string {
	doc := r.Document()

	width := b.viewport.Width - 2
	if width <= 0 {
		width = 80
	}

	if b.useGlamour {
		style := b.glamourStyle
		if style == "" {
			style = "dark"
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			var out string
			if out, err = renderer.Render(doc); err == nil {
				return out
			}
		}
		b.logger.Error("Markdown rendering failed", "rule", r.ID, "error", err)
	}
	return wordwrap.String(doc, width)
}
