package trackview

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/theme"
	"github.com/pradeeshk/bus-tracker/internal/tracker"
)

// frameInterval drives marker animation redraws. Terminal cells are
// coarse, so a handful of frames per second is plenty.
const frameInterval = 250 * time.Millisecond

// reloadCooldown limits how often the manual one-shot fetch can fire.
const reloadCooldown = 5 * time.Second

// ReloadRequestMsg asks the app to run a one-shot location fetch.
type ReloadRequestMsg struct{}

// FrameMsg advances the marker animation by one frame.
type FrameMsg time.Time

// FreshnessMsg carries a staleness re-evaluation into the view.
type FreshnessMsg tracker.Freshness

// Model is the Bubble Tea model for the live tracking view. It owns
// the position animator; the stream subscription and staleness monitor
// are owned by the app and feed this view through messages.
type Model struct {
	busNo    string
	animator *tracker.Animator
	spin     spinner.Model

	loading   bool
	hasSample bool
	sample    model.PositionSample
	freshness tracker.Freshness
	streamErr string

	width  int
	height int

	keyReload  key.Binding
	lastReload time.Time
}

// New creates the tracking view for the given bus number.
func New(busNo string, animDuration time.Duration, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		busNo:     busNo,
		animator:  tracker.NewAnimator(animDuration),
		spin:      sp,
		loading:   true,
		width:     width,
		height:    height,
		keyReload: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
	}
}

// Init starts the loading spinner.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// nextFrame schedules the next animation frame.
func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// ApplySample feeds a new authoritative position into the view. The
// first sample ends the loading state; later samples retarget the
// animator from whatever position is currently drawn.
func (m Model) ApplySample(s model.PositionSample) (Model, tea.Cmd) {
	m.loading = false
	m.hasSample = true
	m.sample = s
	m.streamErr = ""
	m.animator.SetTarget(s.Coordinate, time.Now())

	if m.animator.Animating() {
		return m, nextFrame()
	}
	return m, nil
}

// ApplyStreamError surfaces a terminal stream failure.
func (m Model) ApplyStreamError(err error) Model {
	m.loading = false
	m.streamErr = fmt.Sprintf("Live feed lost: %v. Try refreshing.", err)
	return m
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update routes key, frame, spinner, and freshness events.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keyReload) {
			if time.Since(m.lastReload) < reloadCooldown {
				return m, nil
			}
			m.lastReload = time.Now()
			return m, func() tea.Msg { return ReloadRequestMsg{} }
		}
		return m, nil

	case FrameMsg:
		if m.animator.Animating() {
			m.animator.Position(time.Time(msg))
		}
		if m.animator.Animating() {
			return m, nextFrame()
		}
		return m, nil

	case FreshnessMsg:
		m.freshness = tracker.Freshness(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.loading {
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// View renders the tracking panel.
func (m Model) View() string {
	if m.loading {
		return theme.PanelStyle.Render(
			m.spin.View() + " Waiting for live location of bus " + m.busNo + "...",
		)
	}

	var lines []string

	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Bus "+m.busNo))

	if m.hasSample {
		pos := m.animator.Position(time.Now())
		lines = append(lines, fmt.Sprintf("Position: %.5f, %.5f", pos.Lat, pos.Long))

		label := theme.FreshnessStyle(m.freshness.Degraded).Render(m.freshness.Label)
		lines = append(lines, "Last update: "+label)
	} else {
		lines = append(lines, "Live location not available yet.")
	}

	if m.streamErr != "" {
		lines = append(lines, theme.ErrorStyle.Render(m.streamErr))
	}

	lines = append(lines, theme.HelpStyle.Render("Press R to reload the location once."))

	return theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Hints returns the status-bar hints for this view.
func (m Model) Hints() string {
	return "R: reload | b: notifications | q: quit"
}
