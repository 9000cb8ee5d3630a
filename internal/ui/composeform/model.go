package composeform

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/remote"
)

// SubmitMsg is dispatched when the staff user submits the form.
type SubmitMsg struct {
	Notification remote.NewNotification
}

// CancelMsg is dispatched when the user backs out of the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title     string
	message   string
	notifType string
	imagePath string
}

// Model is the Bubble Tea model for the send-notification form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	sender string
	width  int
	height int
}

// New creates the compose form. sender is stamped onto every sent
// notification.
func New(sender string, width, height int) Model {
	return Model{
		fb:     &formBindings{notifType: string(model.NotificationInfo)},
		sender: sender,
		width:  width,
		height: height,
	}
}

// Start initializes a fresh form.
func (m *Model) Start() tea.Cmd {
	m.fb.title = ""
	m.fb.message = ""
	m.fb.notifType = string(model.NotificationInfo)
	m.fb.imagePath = ""
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.fb.title).
				Validate(notEmpty),
			huh.NewText().
				Title("Message").
				Value(&m.fb.message).
				Validate(notEmpty),
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("Info", string(model.NotificationInfo)),
					huh.NewOption("Warning", string(model.NotificationWarning)),
					huh.NewOption("Alert", string(model.NotificationAlert)),
					huh.NewOption("Success", string(model.NotificationSuccess)),
				).
				Value(&m.fb.notifType),
			huh.NewInput().
				Title("Image path (optional)").
				Value(&m.fb.imagePath),
		),
	).WithWidth(m.width).WithShowHelp(true)
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("this field is required")
	}
	return nil
}

// SetSize resizes the form.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update drives the form and emits SubmitMsg / CancelMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		n := remote.NewNotification{
			Title:            m.fb.title,
			Message:          m.fb.message,
			Sender:           m.sender,
			Type:             model.NotificationType(m.fb.notifType),
			TargetStudentIDs: "all",
		}

		if path := strings.TrimSpace(m.fb.imagePath); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				n.ImageName = filepath.Base(path)
				n.ImageData = data
			}
		}

		return m, func() tea.Msg { return SubmitMsg{Notification: n} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}

// Hints returns the status-bar hints for this view.
func (m Model) Hints() string {
	return "tab: next field | enter: submit | esc: cancel"
}
