package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/DaanHessen/pointboard/internal/engine"
	"github.com/DaanHessen/pointboard/internal/store"
	"github.com/DaanHessen/pointboard/internal/text"
	"github.com/DaanHessen/pointboard/internal/util"
)

const (
	viewBoard   = "board"
	viewConfirm = "confirm"
	viewEmbed   = "embed"
)

const (
	// one frame plus a short settle delay before animated bars start moving
	barDelay      = time.Second/60 + 30*time.Millisecond
	frameInterval = time.Second / 30
	ambientHeight = 3
	sprite        = "[$]"
	leaderCount   = 3
)

// externalChangeMsg reports that another process rewrote the stored board.
type externalChangeMsg struct{}

type barView struct {
	id       string
	bar      progress.Model
	target   float64 // 0..1
	animated bool
}

type popupState struct {
	open    bool
	body    string
	leading map[string]bool
}

type model struct {
	ctx       context.Context
	cfg       util.Config
	sess      *engine.Session
	repo      *store.StateRepo
	book      text.Book
	announcer text.Announcer
	log       *zap.Logger
	changes   <-chan struct{}

	keys   keyMap
	help   help.Model
	tasks  *scheduler
	styles boardStyles
	theme  string

	view     string
	cursor   int
	bars     []barView
	banner   string
	popup    popupState
	saveInfo string
	bounce   *engine.Bouncer
	width    int
	height   int
}

func initialModel(ctx context.Context, opts Options, changes <-chan struct{}) model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	announcer := opts.Announcer
	if announcer == nil {
		announcer = opts.Book
	}
	m := model{
		ctx:       ctx,
		cfg:       opts.Config,
		sess:      opts.Session,
		repo:      opts.Repo,
		book:      opts.Book,
		announcer: announcer,
		log:       log,
		changes:   changes,
		keys:      defaultKeyMap(),
		help:      help.New(),
		tasks:     newScheduler(),
		theme:     opts.Config.Theme,
		view:      viewBoard,
		width:     80,
		height:    24,
	}
	m.styles = stylesFor(m.theme)
	if opts.Config.BounceSpeed > 0 {
		seed := opts.Config.Seed
		if seed == "" {
			seed = fmt.Sprint(time.Now().UnixNano())
		}
		m.bounce = engine.NewBouncer(engine.NewStream(seed), m.width, ambientHeight, len(sprite), 1, opts.Config.BounceSpeed)
	}
	m.save()
	m.render(true)
	return m
}

// tea.Model implementation ---------------------------------------------------
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.tasks.every(taskAutosave, m.cfg.AutosaveInterval),
		m.tasks.every(taskReload, m.cfg.ReloadInterval),
		m.tasks.every(taskSaveInfo, m.cfg.SaveInfoInterval),
		m.tasks.every(taskPopupShow, m.cfg.PopupInterval),
		m.tasks.after(taskBarsAnimate, barDelay),
		m.waitForChange(),
	}
	if m.cfg.EmbedURL != "" {
		cmds = append(cmds, m.tasks.every(taskEmbed, m.cfg.EmbedInterval))
	}
	if m.bounce != nil {
		cmds = append(cmds, m.tasks.every(taskBounce, frameInterval))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		for i := range m.bars {
			m.bars[i].bar.Width = m.barWidth()
		}
		if m.bounce != nil {
			m.bounce.Resize(m.width, ambientHeight)
		}
		return m, nil
	case taskMsg:
		return m.onTask(msg)
	case progress.FrameMsg:
		var cmds []tea.Cmd
		for i := range m.bars {
			updated, cmd := m.bars[i].bar.Update(msg)
			m.bars[i].bar = updated.(progress.Model)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	case externalChangeMsg:
		m.log.Info("stored board changed externally; reloading")
		return m, tea.Batch(m.reload(), m.waitForChange())
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.teardown()
		return m, tea.Quit
	}
	switch m.view {
	case viewConfirm:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.sess.Reset()
			m.save()
			m.log.Info("board reset")
			m.view = viewBoard
			m.banner = ""
			return m, m.render(true)
		case key.Matches(msg, m.keys.Deny):
			m.view = viewBoard
		}
		return m, nil
	case viewEmbed:
		if key.Matches(msg, m.keys.Back) {
			m.endEmbed()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.bars)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		return m, m.apply(1)
	case key.Matches(msg, m.keys.Sub):
		return m, m.apply(-1)
	case key.Matches(msg, m.keys.AddTen):
		return m, m.apply(10)
	case key.Matches(msg, m.keys.SubTen):
		return m, m.apply(-10)
	case key.Matches(msg, m.keys.Leaderboard):
		if m.popup.open {
			m.closePopup()
			return m, nil
		}
		return m, m.showPopup()
	case key.Matches(msg, m.keys.Back):
		if m.popup.open {
			m.closePopup()
		}
	case key.Matches(msg, m.keys.Reset):
		m.view = viewConfirm
	case key.Matches(msg, m.keys.Theme):
		m.theme = nextThemeName(m.theme, 1)
		m.styles = stylesFor(m.theme)
		return m, m.render(false)
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m model) onTask(msg taskMsg) (tea.Model, tea.Cmd) {
	ok, next := m.tasks.fire(msg)
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	switch msg.id {
	case taskAutosave:
		m.save()
	case taskReload:
		cmd = m.reload()
	case taskSaveInfo:
		m.refreshSaveInfo()
	case taskBounce:
		if m.bounce != nil && m.view != viewEmbed {
			m.bounce.Step(msg.at)
		}
	case taskEmbed:
		if m.view == viewBoard {
			m.view = viewEmbed
			if m.bounce != nil {
				m.bounce.Pause()
			}
			cmd = m.tasks.after(taskEmbedEnd, m.cfg.EmbedDuration)
		}
	case taskEmbedEnd:
		m.endEmbed()
	case taskBanner:
		m.banner = ""
	case taskPopupShow:
		if m.view == viewBoard && !m.popup.open {
			cmd = m.showPopup()
		}
	case taskPopupClose:
		m.closePopup()
	case taskBarsAnimate:
		var cmds []tea.Cmd
		for i := range m.bars {
			if m.bars[i].animated {
				cmds = append(cmds, m.bars[i].bar.SetPercent(m.bars[i].target))
			}
		}
		cmd = tea.Batch(cmds...)
	}
	return m, tea.Batch(next, cmd)
}

// Board actions ----------------------------------------------------------------

// apply mutates the selected counter, persists, announces and redraws.
func (m *model) apply(delta int) tea.Cmd {
	if m.cursor >= len(m.bars) {
		return nil
	}
	id := m.bars[m.cursor].id
	ev, err := m.sess.Increment(id, delta)
	if err != nil {
		m.log.Warn("increment failed", zap.String("counter", id), zap.Error(err))
		return nil
	}
	m.save()
	m.log.Debug("counter changed", zap.String("counter", id), zap.Int("delta", delta),
		zap.Int("points", ev.Counter.Points), zap.String("event", string(ev.Kind)))
	cmds := []tea.Cmd{m.render(false)}
	if msg := text.Announce(m.announcer, ev); msg != "" {
		cmds = append(cmds, m.showBanner(msg))
	}
	return tea.Batch(cmds...)
}

// save is best-effort; the repo logs failures and the next autosave retries.
func (m *model) save() {
	_ = m.repo.Save(m.ctx, m.sess.StatePtr())
	m.refreshSaveInfo()
}

// reload re-reads the store. A failed read keeps the board as it is, so the next
// autosave does not overwrite the stored points with defaults.
func (m *model) reload() tea.Cmd {
	st, err := m.repo.LoadErr(m.ctx)
	if err != nil {
		m.log.Warn("reload failed; keeping current board", zap.String("key", m.repo.Key()), zap.Error(err))
		return nil
	}
	m.sess.Replace(st)
	m.closePopup()
	m.banner = ""
	m.tasks.stop(taskBanner)
	m.refreshSaveInfo()
	return m.render(true)
}

func (m *model) refreshSaveInfo() {
	m.saveInfo = m.book.SavedAgo(m.sess.StatePtr().Updated, m.sess.Now())
}

// render rebuilds every bar from the session. Animated renders start each bar at
// zero and move it to the target once the first frame has been drawn.
func (m *model) render(animate bool) tea.Cmd {
	items := m.sess.Counters()
	m.bars = make([]barView, len(items))
	for i, c := range items {
		p := engine.ProgressOf(c.Points, m.sess.Goal())
		m.bars[i] = barView{
			id:       c.ID,
			bar:      m.styles.newBar(m.barWidth(), p.Over),
			target:   p.Fraction(),
			animated: animate,
		}
	}
	if m.cursor >= len(m.bars) {
		m.cursor = 0
	}
	if !animate {
		return nil
	}
	return m.tasks.after(taskBarsAnimate, barDelay)
}

// showBanner replaces the current banner and restarts its dismiss timer.
func (m *model) showBanner(msg string) tea.Cmd {
	m.banner = msg
	return m.tasks.after(taskBanner, m.cfg.BannerDuration)
}

func (m *model) showPopup() tea.Cmd {
	sum := m.sess.Summary(leaderCount)
	leading := make(map[string]bool, len(sum.Leaders))
	for _, l := range sum.Leaders {
		leading[l.Counter.ID] = true
	}
	m.popup = popupState{
		open:    true,
		body:    m.renderMarkdown(m.book.Leaderboard(sum)),
		leading: leading,
	}
	return m.tasks.after(taskPopupClose, m.cfg.PopupDuration)
}

// closePopup always clears the leader highlights.
func (m *model) closePopup() {
	m.popup = popupState{}
	m.tasks.stop(taskPopupClose)
}

func (m *model) endEmbed() {
	if m.view == viewEmbed {
		m.view = viewBoard
	}
	m.tasks.stop(taskEmbedEnd)
}

func (m *model) teardown() {
	m.tasks.stopAll()
	m.save()
}

func (m model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return externalChangeMsg{}
	}
}

// Layout rendering -----------------------------------------------------------
func (m model) View() string {
	switch m.view {
	case viewConfirm:
		return m.renderConfirm()
	case viewEmbed:
		return m.renderEmbed()
	}
	parts := []string{m.renderHeader()}
	if m.banner != "" {
		parts = append(parts, m.styles.banner.Render(m.banner))
	}
	if m.popup.open {
		parts = append(parts, m.styles.popup.Width(m.cardWidth()).Render(strings.TrimRight(m.popup.body, "\n")))
	}
	for i := range m.bars {
		parts = append(parts, m.renderCard(i))
	}
	if m.bounce != nil {
		parts = append(parts, m.renderAmbient())
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderHeader() string {
	left := m.styles.title.Render("POINTBOARD")
	right := m.styles.title.Render(m.book.Goal(m.sess.Goal()))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n" + m.styles.muted.Render(m.saveInfo)
}

func (m model) renderCard(i int) string {
	bv := m.bars[i]
	c, _ := m.sess.Counter(bv.id)
	p := engine.ProgressOf(c.Points, m.sess.Goal())
	isTotal := bv.id == m.sess.TotalID()

	name := m.styles.name.Render(c.Name)
	if isTotal {
		name = m.styles.totalName.Render(strings.ToUpper(c.Name))
	}
	if m.popup.leading[bv.id] {
		name = m.styles.leading.Render("★ ") + name
	}
	points := m.styles.muted.Render(m.book.Points(c.Points))
	head := name + "  " + points
	if i == m.cursor {
		head += m.styles.muted.Render("   [-] [+]")
	}

	bar := bv.bar.ViewAs(bv.target)
	if bv.animated {
		bar = bv.bar.View()
	}
	pct := m.styles.percent.Render(fmt.Sprintf("%4d%%", p.Label))
	if p.Over {
		pct = m.styles.over.Render(fmt.Sprintf("%4d%%", p.Label))
	}
	body := head + "\n" + bar + " " + pct

	style := m.styles.card
	switch {
	case isTotal:
		style = m.styles.totalCard
	case i == m.cursor:
		style = m.styles.cardSelected
	}
	if isTotal && i == m.cursor {
		style = style.BorderForeground(m.styles.pal.AccentAlt)
	}
	return style.Width(m.cardWidth()).Render(body)
}

// renderAmbient draws the bouncing sprite inside its strip.
func (m model) renderAmbient() string {
	x, y := m.bounce.Cell()
	rows := make([]string, ambientHeight)
	for r := range rows {
		if r != y {
			rows[r] = ""
			continue
		}
		rows[r] = strings.Repeat(" ", x) + m.styles.sprite.Render(sprite)
	}
	return strings.Join(rows, "\n")
}

func (m model) renderConfirm() string {
	hint := m.styles.muted.Render("[y] yes   [n] no")
	box := m.styles.dialog.Render(m.book.ResetPrompt() + "\n\n" + hint)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) renderEmbed() string {
	body := m.renderMarkdown(m.book.EmbedPanel(m.cfg.EmbedURL))
	hint := m.styles.muted.Render("esc: back to the board")
	box := m.styles.popup.Render(strings.TrimRight(body, "\n") + "\n" + hint)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(m.cardWidth()-4))
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m model) cardWidth() int {
	w := m.width - 2
	if w > 100 {
		w = 100
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (m model) barWidth() int { return m.cardWidth() - 10 }
