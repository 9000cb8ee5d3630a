package app

import (
	"context"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/remote"
	"github.com/pradeeshk/bus-tracker/internal/store"
	"github.com/pradeeshk/bus-tracker/internal/stream"
	appsync "github.com/pradeeshk/bus-tracker/internal/sync"
	"github.com/pradeeshk/bus-tracker/internal/theme"
	"github.com/pradeeshk/bus-tracker/internal/tracker"
	"github.com/pradeeshk/bus-tracker/internal/ui"
	"github.com/pradeeshk/bus-tracker/internal/ui/composeform"
	"github.com/pradeeshk/bus-tracker/internal/ui/notiflist"
	"github.com/pradeeshk/bus-tracker/internal/ui/trackview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewNotifications ViewState = iota
	ViewTracker
	ViewCompose
)

// Model is the root Bubble Tea model: view routing, shared layout,
// and ownership of the sync engine, stream subscription, and
// staleness monitor.
type Model struct {
	cfg    *model.AppConfig
	token  string
	log    *zap.Logger
	store  store.Store
	remote *remote.Client
	engine *appsync.Engine

	streamClient  *stream.Client
	streamUpdates <-chan stream.Update
	monitor       *tracker.Monitor

	currentView ViewState
	layout      ui.Layout
	notifList   notiflist.Model
	trackView   trackview.Model
	compose     composeform.Model

	unreadCount int
	syncStatus  string
	alert       string
	ready       bool
}

// New wires the root model from its collaborators. The store and
// clients are constructed by the caller so tests can substitute fakes.
func New(
	cfg *model.AppConfig,
	token string,
	s store.Store,
	rc *remote.Client,
	sc *stream.Client,
	log *zap.Logger,
) Model {
	canSend := cfg.Profile.CanSend()
	animDuration := time.Duration(cfg.Tracking.AnimationMs) * time.Millisecond

	var updates <-chan stream.Update
	if cfg.Tracking.BusNo != "" {
		ch, err := sc.Subscribe(cfg.Tracking.BusNo, token)
		if err != nil {
			log.Error("subscribing to live feed failed", zap.Error(err))
		} else {
			updates = ch
		}
	}

	return Model{
		cfg:           cfg,
		token:         token,
		log:           log,
		store:         s,
		remote:        rc,
		engine:        appsync.NewEngine(s, rc, log),
		streamClient:  sc,
		streamUpdates: updates,
		currentView:   ViewNotifications,
		layout:        ui.NewLayout(80, 24),
		notifList:     notiflist.New(canSend, 80, 20),
		trackView:     trackview.New(cfg.Tracking.BusNo, animDuration, 80, 20),
		compose:       composeform.New(cfg.Profile.SenderName, 80, 20),
	}
}

// Init kicks off the first sync and the live feed pump.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.doSync(), m.trackView.Init()}

	if m.streamUpdates != nil {
		cmds = append(cmds, m.waitStream())
	}

	return tea.Batch(cmds...)
}

// Update routes messages to the active view and handles app-level
// events: sync results, stream updates, staleness ticks, and the
// global key bindings.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		contentHeight := m.layout.ContentHeight()
		m.notifList.SetSize(msg.Width, contentHeight)
		m.trackView.SetSize(msg.Width, contentHeight)
		m.compose.SetSize(msg.Width, contentHeight)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		// Any keystroke dismisses a pending alert.
		m.alert = ""
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}

	case syncDoneMsg:
		return m.onSyncDone(msg)

	case markReadDoneMsg:
		if msg.err != nil {
			m.log.Warn("mark read failed", zap.String("id", msg.id), zap.Error(msg.err))
			return m, nil
		}
		return m, m.refreshFromStore()

	case deleteDoneMsg:
		if msg.err != nil {
			m.alert = "Could not delete notification."
			m.log.Error("delete failed", zap.String("id", msg.id), zap.Error(msg.err))
			return m, nil
		}
		m.alert = ""
		return m, m.refreshFromStore()

	case sendDoneMsg:
		return m.onSendDone(msg)

	case snapshotMsg:
		m.notifList.SetNotifications(msg.notifs)
		m.unreadCount = countUnread(msg.notifs)
		return m, nil

	case streamUpdateMsg:
		return m.onStreamUpdate(msg)

	case freshnessMsg:
		var cmd tea.Cmd
		m.trackView, cmd = m.trackView.Update(trackview.FreshnessMsg(msg.f))
		return m, tea.Batch(cmd, m.waitFreshness())

	case monitorStoppedMsg:
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.alert = "Could not fetch live location."
			m.log.Error("manual location reload failed", zap.Error(msg.err))
			return m, nil
		}
		m.alert = ""
		if m.monitor != nil {
			m.monitor.Touch(msg.sample.ReceivedAt)
		}
		var cmd tea.Cmd
		m.trackView, cmd = m.trackView.ApplySample(msg.sample)
		return m, cmd

	case notiflist.MarkReadMsg:
		return m, m.doMarkRead(msg.ID)

	case notiflist.DeleteRequestMsg:
		return m, m.doDelete(msg.ID)

	case notiflist.RefreshRequestMsg:
		return m, m.doSync()

	case notiflist.ComposeRequestMsg:
		m.currentView = ViewCompose
		return m, m.compose.Start()

	case trackview.ReloadRequestMsg:
		return m, m.doReload()

	case composeform.SubmitMsg:
		m.currentView = ViewNotifications
		return m, m.doSend(msg.Notification)

	case composeform.CancelMsg:
		m.currentView = ViewNotifications
		return m, nil
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes app-wide bindings. Returns handled=false
// for keys the active view should see instead.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// The compose form owns the keyboard while it is open, and so does
	// the list while the user is typing a filter.
	if m.currentView == ViewCompose {
		return nil, false
	}
	if m.currentView == ViewNotifications && m.notifList.Filtering() {
		return nil, false
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.teardown()
		return tea.Quit, true
	case "t":
		m.currentView = ViewTracker
		return nil, true
	case "b", "esc":
		if m.currentView == ViewNotifications {
			return nil, false
		}
		m.currentView = ViewNotifications
		return nil, true
	}

	return nil, false
}

// updateActiveView forwards a message to whichever view is showing.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notifList, cmd = m.notifList.Update(msg)
	case ViewTracker:
		m.trackView, cmd = m.trackView.Update(msg)
	case ViewCompose:
		m.compose, cmd = m.compose.Update(msg)
	}

	return m, cmd
}

// teardown releases every resource tied to this session: the live
// subscription and the staleness monitor. Nothing may outlive the
// program.
func (m *Model) teardown() {
	if m.streamClient != nil {
		m.streamClient.Unsubscribe()
	}
	if m.monitor != nil {
		m.monitor.Stop()
	}
}

// View renders the frame around the active view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var content, hints string
	switch m.currentView {
	case ViewNotifications:
		content = m.notifList.View()
		hints = m.notifList.Hints()
	case ViewTracker:
		content = m.trackView.View()
		hints = m.trackView.Hints()
	case ViewCompose:
		content = m.compose.View()
		hints = m.compose.Hints()
	}

	status := m.syncStatus
	if m.alert != "" {
		status = m.alert
	}

	title := "Bus Tracker"
	if m.unreadCount > 0 {
		title += " " + theme.UnreadBadgeStyle.Render(strconv.Itoa(m.unreadCount)+" unread")
	}

	header := m.layout.RenderHeader(title, status)
	statusBar := m.layout.RenderStatusBar(hints)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func countUnread(notifs []model.Notification) int {
	n := 0
	for _, notif := range notifs {
		if !notif.Read {
			n++
		}
	}
	return n
}

// onSyncDone applies a finished sync pass to the list view.
func (m Model) onSyncDone(msg syncDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Overlap rejection or a local read failure; the current view
		// stays as is.
		m.log.Warn("sync skipped", zap.Error(msg.err))
		return m, nil
	}

	m.notifList.SetNotifications(msg.res.Merged)
	m.unreadCount = msg.res.Unread()
	m.alert = ""

	if msg.res.RemoteErr != nil {
		m.syncStatus = "offline, showing cached"
	} else {
		m.syncStatus = "synced " + time.Now().Format("15:04:05")
	}

	return m, nil
}

// onSendDone applies the result of a staff compose submission.
func (m Model) onSendDone(msg sendDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.alert = "Could not send notification."
		m.log.Error("send failed", zap.Error(msg.err))
		return m, nil
	}

	m.alert = ""
	if msg.notif != nil {
		m.log.Info("notification sent", zap.String("id", msg.notif.ID))
	}
	// The created record enters the cache through the next sync pass.
	return m, m.doSync()
}

// onStreamUpdate feeds a live position (or stream failure) into the
// tracker view and keeps the subscription pump running.
func (m Model) onStreamUpdate(msg streamUpdateMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		// Channel closed: subscription over, stop pumping.
		return m, nil
	}

	var cmds []tea.Cmd

	if msg.u.Err != nil {
		m.trackView = m.trackView.ApplyStreamError(msg.u.Err)
		m.alert = "Live feed connection failed. Try refreshing."
		return m, tea.Batch(append(cmds, m.waitStream())...)
	}

	if m.monitor == nil {
		m.monitor = tracker.NewMonitor(
			time.Duration(m.cfg.Tracking.StaleAfterSec) * time.Second,
		)
		cmds = append(cmds, m.waitFreshness())
	}
	m.monitor.Touch(msg.u.Sample.ReceivedAt)

	var cmd tea.Cmd
	m.trackView, cmd = m.trackView.ApplySample(msg.u.Sample)
	cmds = append(cmds, cmd, m.waitStream())

	return m, tea.Batch(cmds...)
}

// doSync runs one sync pass off the UI goroutine.
func (m Model) doSync() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		res, err := engine.Sync(context.Background())
		return syncDoneMsg{res: res, err: err}
	}
}

// refreshFromStore re-reads the cached snapshot without a remote fetch.
func (m Model) refreshFromStore() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		notifs, err := s.GetNotifications(context.Background())
		if err != nil {
			return snapshotMsg{}
		}
		return snapshotMsg{notifs: notifs}
	}
}

func (m Model) doMarkRead(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.MarkNotificationRead(context.Background(), id)
		return markReadDoneMsg{id: id, err: err}
	}
}

// doDelete removes the notification remotely, then locally.
func (m Model) doDelete(id string) tea.Cmd {
	rc := m.remote
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		if err := rc.DeleteNotification(ctx, id); err != nil {
			return deleteDoneMsg{id: id, err: err}
		}
		if err := s.DeleteNotification(ctx, id); err != nil {
			return deleteDoneMsg{id: id, err: err}
		}
		return deleteDoneMsg{id: id}
	}
}

func (m Model) doSend(n remote.NewNotification) tea.Cmd {
	rc := m.remote
	return func() tea.Msg {
		created, err := rc.CreateNotification(context.Background(), n)
		return sendDoneMsg{notif: created, err: err}
	}
}

func (m Model) doReload() tea.Cmd {
	rc := m.remote
	busNo := m.cfg.Tracking.BusNo
	return func() tea.Msg {
		sample, err := rc.FetchLocation(context.Background(), busNo)
		return reloadDoneMsg{sample: sample, err: err}
	}
}

// waitStream pumps the next stream update into the program.
func (m Model) waitStream() tea.Cmd {
	ch := m.streamUpdates
	return func() tea.Msg {
		u, ok := <-ch
		return streamUpdateMsg{u: u, ok: ok}
	}
}

// waitFreshness pumps the next staleness re-evaluation.
func (m Model) waitFreshness() tea.Cmd {
	monitor := m.monitor
	return func() tea.Msg {
		f, ok := <-monitor.Updates()
		if !ok {
			return monitorStoppedMsg{}
		}
		return freshnessMsg{f: f}
	}
}
