package model

import "time"

// NotificationType classifies a notification for display purposes.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationAlert   NotificationType = "alert"
	NotificationSuccess NotificationType = "success"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationWarning, NotificationAlert, NotificationSuccess:
		return true
	}
	return false
}

// Notification is a single transport notification as cached locally.
// Records are owned by the server; ID and Time are assigned there and
// never change once created. Only Read is mutated on the client, and
// only from false to true.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"_id" db:"id"`

	// Title is the short headline shown in the list.
	Title string `json:"title" db:"title"`

	// Message is the full notification body.
	Message string `json:"message" db:"message"`

	// Sender is the display name of whoever sent the notification.
	Sender string `json:"sender" db:"sender"`

	// Type is one of info, warning, alert, success.
	Type NotificationType `json:"type" db:"type"`

	// ImageRef is an opaque server-side reference to an attached image,
	// empty when the notification has none.
	ImageRef string `json:"imageUrl,omitempty" db:"image_ref"`

	// Time is the server-assigned creation timestamp. It is the basis
	// for ordering, retention trimming, and the sync watermark.
	Time time.Time `json:"time" db:"time"`

	// Read indicates whether the user has opened this notification.
	Read bool `json:"read" db:"read"`
}
