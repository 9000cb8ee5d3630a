package notiflist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/theme"
)

// MarkReadMsg asks the app to mark a notification as read.
type MarkReadMsg struct {
	ID string
}

// DeleteRequestMsg asks the app to delete a notification remotely.
type DeleteRequestMsg struct {
	ID string
}

// RefreshRequestMsg asks the app to run a sync pass now.
type RefreshRequestMsg struct{}

// ComposeRequestMsg asks the app to open the compose form.
type ComposeRequestMsg struct{}

// notifItem adapts a notification for the bubbles list.
type notifItem struct {
	n model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i notifItem) FilterValue() string {
	return i.n.Title + " " + i.n.Message
}

// Title returns the headline with an unread marker and type tag.
func (i notifItem) Title() string {
	marker := "  "
	if !i.n.Read {
		marker = "● "
	}
	tag := theme.TypeStyle(string(i.n.Type)).Render(string(i.n.Type))
	return marker + tag + " " + i.n.Title
}

// Description returns the sender and relative age.
func (i notifItem) Description() string {
	return fmt.Sprintf("From: %s | %s", i.n.Sender, relativeTime(i.n.Time))
}

// Model is the Bubble Tea model for the notification list view.
type Model struct {
	list    list.Model
	canSend bool
	keyRead key.Binding
	keyDel  key.Binding
	keySync key.Binding
	keySend key.Binding
}

// New creates the notification list view. canSend enables the staff
// compose and delete actions.
func New(canSend bool, width, height int) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return Model{
		list:    l,
		canSend: canSend,
		keyRead: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "mark read")),
		keyDel:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		keySync: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		keySend: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	}
}

// SetNotifications replaces the list content with a fresh snapshot.
func (m *Model) SetNotifications(notifs []model.Notification) {
	items := make([]list.Item, 0, len(notifs))
	for _, n := range notifs {
		items = append(items, notifItem{n: n})
	}
	m.list.SetItems(items)
}

// SetSize resizes the underlying list.
func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Filtering reports whether the user is typing a list filter.
func (m Model) Filtering() bool {
	return m.list.SettingFilter()
}

// Selected returns the currently highlighted notification, if any.
func (m Model) Selected() (model.Notification, bool) {
	item, ok := m.list.SelectedItem().(notifItem)
	if !ok {
		return model.Notification{}, false
	}
	return item.n, true
}

// Update routes key events and list navigation.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		switch {
		case key.Matches(keyMsg, m.keyRead):
			if n, ok := m.Selected(); ok && !n.Read {
				return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }
			}
			return m, nil
		case key.Matches(keyMsg, m.keyDel):
			if !m.canSend {
				return m, nil
			}
			if n, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteRequestMsg{ID: n.ID} }
			}
			return m, nil
		case key.Matches(keyMsg, m.keySync):
			return m, func() tea.Msg { return RefreshRequestMsg{} }
		case key.Matches(keyMsg, m.keySend):
			if m.canSend {
				return m, func() tea.Msg { return ComposeRequestMsg{} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list.
func (m Model) View() string {
	return m.list.View()
}

// Hints returns the status-bar hints for this view.
func (m Model) Hints() string {
	hints := "enter: mark read | r: refresh | t: tracker | q: quit"
	if m.canSend {
		hints = "enter: mark read | n: new | d: delete | r: refresh | t: tracker | q: quit"
	}
	return hints
}

// relativeTime renders a compact age such as "3m" or "2d".
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
