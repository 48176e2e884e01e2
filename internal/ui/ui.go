package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"docq/internal/models"
	"docq/internal/repositories"
	"docq/internal/services"
	"docq/internal/session"
	"docq/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LandingView ViewState = iota
	LoginView
	SignupView
	StatsView
	UploadView
	ChatView
	HistoryView
)

// viewForPath maps a router location to its view. Query strings on the
// location select content within the view, not the view itself.
func viewForPath(path string) ViewState {
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	switch path {
	case session.PathLogin:
		return LoginView
	case session.PathSignup:
		return SignupView
	case session.PathStats:
		return StatsView
	case session.PathUpload:
		return UploadView
	case session.PathChat:
		return ChatView
	case session.PathHistory:
		return HistoryView
	default:
		return LandingView
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	controller *session.Controller
	router     *ChannelRouter
	svc        services.Service
	pipeline   *tasks.UploadPipeline
	conv       *tasks.Conversation
	repo       *repositories.SessionRepository
	batchOpts  tasks.BatchOpts

	width  int
	height int
	help   help.Model
	keys   keyMap

	// login/signup form
	inputs  []textinput.Model
	focused int
	busy    bool
	notice  string

	stats *models.Stats

	// upload batch
	files        []tasks.File
	progressChan chan tasks.ProgressUpdate
	uploading    bool
	batch        *tasks.BatchResult
	batchErr     error

	// chat
	queryInput textinput.Model
	transcript []models.Message
	thinking   bool

	// history
	sessionList  list.Model
	haveList     bool
	fromCache    bool
	confirmClear bool

	err error
}

// NewModel creates a new TUI model with the provided dependencies. The repo
// may be nil when no local cache is configured; files are the documents
// staged for the upload view.
func NewModel(
	ctx context.Context,
	controller *session.Controller,
	router *ChannelRouter,
	svc services.Service,
	pipeline *tasks.UploadPipeline,
	conv *tasks.Conversation,
	repo *repositories.SessionRepository,
	files []tasks.File,
	batchOpts tasks.BatchOpts,
) *Model {
	return &Model{
		ctx:        ctx,
		view:       viewForPath(router.Location()),
		controller: controller,
		router:     router,
		svc:        svc,
		pipeline:   pipeline,
		conv:       conv,
		repo:       repo,
		files:      files,
		batchOpts:  batchOpts,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init restores the saved session and starts listening for navigation.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.initializeSession(), m.waitForNavigate())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.haveList {
			m.sessionList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case navigateMsg:
		return m.enterView(string(msg))

	case sessionReadyMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
		}
		return m, m.waitForNavigate()

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case statsFetchedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.stats = msg.stats
		return m, nil

	case sessionsFetchedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.fromCache = msg.fromCache
		items := make([]list.Item, len(msg.sessions))
		for i, s := range msg.sessions {
			items[i] = sessionItem{session: s}
		}
		m.sessionList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.sessionList.Title = "Chat History"
		m.haveList = true
		return m, nil

	case uploadProgressMsg:
		return m, m.waitForUpload()

	case uploadDoneMsg:
		m.uploading = false
		m.batch = msg.result
		m.batchErr = msg.err
		return m, nil

	case answerMsg:
		m.thinking = false
		m.transcript = m.conv.Messages()
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case transcriptLoadedMsg:
		m.thinking = false
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.transcript = m.conv.Messages()
		return m, nil

	case historyClearedMsg:
		m.confirmClear = false
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.notice = "History cleared"
		return m, m.fetchSessions()
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LandingView:
		return m.renderLanding()
	case LoginView:
		return m.renderForm("Sign In", "enter to sign in")
	case SignupView:
		return m.renderForm("Create Account", "enter to sign up")
	case StatsView:
		return m.renderStats()
	case UploadView:
		return m.renderUpload()
	case ChatView:
		return m.renderChat()
	case HistoryView:
		return m.renderHistory()
	default:
		return ""
	}
}

// goTo routes a user-initiated navigation through the router so the session
// guard sees it before the view switches.
func (m *Model) goTo(path string) {
	m.router.Navigate(path)
	m.controller.OnNavigate(path)
}

// enterView reacts to a router location change, resetting transient state
// and kicking off the new view's data load.
func (m *Model) enterView(path string) (tea.Model, tea.Cmd) {
	m.view = viewForPath(path)
	m.notice = ""
	cmds := []tea.Cmd{m.waitForNavigate()}

	switch m.view {
	case LoginView:
		m.setupForm("Email", "Password")
	case SignupView:
		m.setupForm("Name", "Email", "Password")
	case StatsView:
		cmds = append(cmds, m.fetchStats())
	case ChatView:
		m.queryInput = textinput.New()
		m.queryInput.Placeholder = "Ask a question about your documents..."
		m.queryInput.Focus()
		if id := sessionParam(path); id != "" && id != m.conv.SessionID() {
			m.thinking = true
			cmds = append(cmds, m.loadTranscript(id))
		} else {
			m.transcript = m.conv.Messages()
		}
	case HistoryView:
		m.confirmClear = false
		cmds = append(cmds, m.fetchSessions())
	}

	return m, tea.Batch(cmds...)
}

func sessionParam(path string) string {
	idx := strings.Index(path, "?")
	if idx < 0 {
		return ""
	}
	for _, pair := range strings.Split(path[idx+1:], "&") {
		if value, ok := strings.CutPrefix(pair, "session="); ok {
			return value
		}
	}
	return ""
}

func (m *Model) setupForm(labels ...string) {
	m.inputs = make([]textinput.Model, len(labels))
	for i, label := range labels {
		input := textinput.New()
		input.Placeholder = label
		if label == "Password" {
			input.EchoMode = textinput.EchoPassword
		}
		m.inputs[i] = input
	}
	m.focused = 0
	m.inputs[0].Focus()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case LandingView:
		return m.handleLandingKeys(msg)
	case LoginView, SignupView:
		return m.handleFormKeys(msg)
	case StatsView:
		return m.handleStatsKeys(msg)
	case UploadView:
		return m.handleUploadKeys(msg)
	case ChatView:
		return m.handleChatKeys(msg)
	case HistoryView:
		return m.handleHistoryKeys(msg)
	}
	return m, nil
}

func (m *Model) handleLandingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "l", "enter":
		m.goTo(session.PathLogin)
	case "s":
		m.goTo(session.PathSignup)
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.goTo(session.PathLanding)
		return m, nil
	case "tab", "shift+tab", "down", "up":
		if msg.String() == "shift+tab" || msg.String() == "up" {
			m.focused--
		} else {
			m.focused++
		}
		if m.focused < 0 {
			m.focused = len(m.inputs) - 1
		}
		if m.focused >= len(m.inputs) {
			m.focused = 0
		}
		for i := range m.inputs {
			if i == m.focused {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.notice = ""
		if m.view == LoginView {
			return m, m.login(m.inputs[0].Value(), m.inputs[1].Value())
		}
		return m, m.signup(m.inputs[0].Value(), m.inputs[1].Value(), m.inputs[2].Value())
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m *Model) handleStatsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "u":
		m.goTo(session.PathUpload)
	case "c":
		m.goTo(session.PathChat)
	case "h":
		m.goTo(session.PathHistory)
	case "ctrl+l":
		return m, m.logout()
	case "r":
		return m, m.fetchStats()
	}
	return m, nil
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if !m.uploading {
			m.goTo(session.PathStats)
		}
		return m, nil
	case "enter":
		if m.uploading || len(m.files) == 0 || m.batch != nil {
			return m, nil
		}
		m.uploading = true
		return m, m.startUpload()
	}
	return m, nil
}

func (m *Model) handleChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.goTo(session.PathStats)
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.queryInput.Value())
		if query == "" || m.thinking {
			return m, nil
		}
		m.queryInput.SetValue("")
		m.thinking = true
		return m, m.ask(query)
	}

	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		switch msg.String() {
		case "y":
			return m, m.clearHistory()
		case "n", "esc":
			m.confirmClear = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.haveList && m.sessionList.FilterState() == list.Filtering {
			break
		}
		m.goTo(session.PathStats)
		return m, nil
	case "x":
		if m.haveList && m.sessionList.FilterState() != list.Filtering {
			m.confirmClear = true
			return m, nil
		}
	case "enter":
		if !m.haveList {
			return m, nil
		}
		if item, ok := m.sessionList.SelectedItem().(sessionItem); ok {
			m.goTo(session.PathChat + "?session=" + item.session.ID)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.sessionList, cmd = m.sessionList.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HistoryView:
		if m.haveList {
			m.sessionList, cmd = m.sessionList.Update(msg)
		}
	case ChatView:
		m.queryInput, cmd = m.queryInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) initializeSession() tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		return sessionReadyMsg{err: m.controller.Initialize(m.ctx)}
	}
}

func (m *Model) waitForNavigate() tea.Cmd {
	return func() tea.Msg {
		return navigateMsg(<-m.router.Changes())
	}
}

func (m *Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: m.controller.Login(m.ctx, email, password)}
	}
}

func (m *Model) signup(name, email, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: m.controller.Signup(m.ctx, name, email, password)}
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: m.controller.Logout()}
	}
}

func (m *Model) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.svc.Stats(m.ctx)
		return statsFetchedMsg{stats: stats, err: err}
	}
}

func (m *Model) fetchSessions() tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.svc.Sessions(m.ctx)
		if err == nil {
			if m.repo != nil {
				// cache refresh failures are not worth interrupting the view
				_ = m.repo.Refresh(sessions)
			}
			return sessionsFetchedMsg{sessions: sessions}
		}

		if m.repo != nil {
			if cached, cacheErr := m.repo.List(); cacheErr == nil {
				return sessionsFetchedMsg{sessions: cached, fromCache: true}
			}
		}
		return sessionsFetchedMsg{err: err}
	}
}

func (m *Model) startUpload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	opts := m.batchOpts
	opts.OnHandOff = func(sessionID string) {
		m.conv.Attach(sessionID)
		m.router.Navigate(session.PathChat)
	}

	go func() {
		result, err := m.pipeline.Run(m.ctx, m.progressChan, m.files, opts)
		m.batch = result
		m.batchErr = err
		close(m.progressChan)
	}()

	return m.waitForUpload()
}

func (m *Model) waitForUpload() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return uploadDoneMsg{result: m.batch, err: m.batchErr}
		}

		update, ok := <-m.progressChan
		if !ok {
			return uploadDoneMsg{result: m.batch, err: m.batchErr}
		}
		return uploadProgressMsg(update)
	}
}

func (m *Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		message, err := m.conv.Ask(m.ctx, query)
		return answerMsg{message: message, err: err}
	}
}

func (m *Model) loadTranscript(id string) tea.Cmd {
	return func() tea.Msg {
		return transcriptLoadedMsg{err: m.conv.Resume(m.ctx, id)}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.ClearHistory(m.ctx); err != nil {
			return historyClearedMsg{err: err}
		}
		if m.repo != nil {
			_ = m.repo.Clear()
		}
		return historyClearedMsg{}
	}
}

func (m *Model) renderLanding() string {
	title := styles.title.Render("docq")
	body := "Ask questions about your documents.\n\nl: sign in  s: create account  q: quit"
	if m.busy {
		body = "Restoring session..."
	}
	return fmt.Sprintf("%s\n%s", title, body)
}

func (m *Model) renderForm(title, action string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString("\nWorking...")
	}
	if m.notice != "" {
		b.WriteString("\n" + styles.err.Render(m.notice))
	}
	b.WriteString("\n" + styles.help.Render(fmt.Sprintf("%s • tab to switch fields • esc to go back", action)))
	return b.String()
}

func (m *Model) renderStats() string {
	var b strings.Builder
	title := "Knowledge Base"
	if user := m.controller.User(); user != nil {
		title = fmt.Sprintf("Knowledge Base · %s", user.Name)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if m.stats == nil {
		b.WriteString("Loading stats...\n")
	} else {
		b.WriteString(fmt.Sprintf("Documents: %d\nChunks: %d\nChat sessions: %d\n",
			m.stats.TotalDocuments, m.stats.TotalChunks, m.stats.ChatHistoryCount))
	}
	if m.notice != "" {
		b.WriteString("\n" + styles.warn.Render(m.notice))
	}
	b.WriteString("\n" + styles.help.Render("u: upload  c: chat  h: history  r: refresh  ctrl+l: logout  q: quit"))
	return b.String()
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Upload Documents"))
	b.WriteString("\n")

	if len(m.files) == 0 {
		b.WriteString("No files staged. Pass documents on the command line.\n")
		b.WriteString("\n" + styles.help.Render("esc: back  q: quit"))
		return b.String()
	}

	items := m.pipeline.Items()
	if len(items) == 0 {
		for _, f := range m.files {
			b.WriteString(fmt.Sprintf("  %s (%d bytes)\n", f.Name, len(f.Data)))
		}
		b.WriteString("\n" + styles.help.Render("enter: start upload  esc: back  q: quit"))
		return b.String()
	}

	for _, item := range items {
		switch item.Status {
		case tasks.StatusSuccess:
			b.WriteString(styles.ok.Render(fmt.Sprintf("  ✓ %s (%d chunks)", item.Name, item.ChunksCount)))
		case tasks.StatusError:
			b.WriteString(styles.err.Render(fmt.Sprintf("  ✗ %s: %s", item.Name, item.Detail)))
		case tasks.StatusUploading:
			b.WriteString(fmt.Sprintf("  %s %s %d%%", item.Name, renderBar(item.Percent, 20), item.Percent))
		default:
			b.WriteString(styles.help.Render(fmt.Sprintf("  … %s", item.Name)))
		}
		b.WriteString("\n")
	}

	if m.batch != nil {
		b.WriteString(fmt.Sprintf("\nUploaded %d of %d files\n", m.batch.Succeeded, m.batch.TotalFiles))
		if m.batch.Succeeded > 0 {
			b.WriteString(styles.help.Render("Opening chat...\n"))
		}
	}
	if m.batchErr != nil {
		b.WriteString("\n" + styles.err.Render(m.batchErr.Error()))
	}
	b.WriteString("\n" + styles.help.Render("esc: back  q: quit"))
	return b.String()
}

// renderBar draws a fixed-width progress bar.
func renderBar(percent, width int) string {
	filled := percent * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func (m *Model) renderChat() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Chat"))
	b.WriteString("\n")

	if len(m.transcript) == 0 && !m.thinking {
		b.WriteString(styles.help.Render("Ask a question to get started.\n"))
	}
	for _, msg := range m.transcript {
		b.WriteString(styles.query.Render("You: " + msg.Query))
		b.WriteString("\n")
		b.WriteString(styles.answer.Render(msg.Answer))
		b.WriteString("\n")
		if len(msg.Sources) > 0 {
			b.WriteString(styles.help.Render("Sources: " + strings.Join(msg.Sources, ", ")))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.thinking {
		b.WriteString(styles.help.Render("Thinking...\n"))
	}
	if m.notice != "" {
		b.WriteString(styles.warn.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.queryInput.View())
	b.WriteString("\n" + styles.help.Render("enter: ask  esc: back"))
	return b.String()
}

func (m *Model) renderHistory() string {
	if m.confirmClear {
		title := styles.title.Render("Clear all chat history?")
		warning := styles.warn.Render("This removes every session and transcript.")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
		return fmt.Sprintf("%s\n%s\n\n%s", title, warning, helpView)
	}

	if !m.haveList {
		return styles.title.Render("Chat History") + "\nLoading..."
	}

	var footer string
	if m.fromCache {
		footer = styles.warn.Render("Offline: showing cached history") + "\n"
	}
	if m.notice != "" {
		footer += styles.warn.Render(m.notice) + "\n"
	}
	helpView := styles.help.Render("enter: open  /: search  x: clear all  esc: back")
	return fmt.Sprintf("%s\n%s%s", m.sessionList.View(), footer, helpView)
}
