package remote

import (
	"fmt"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

// APIError is a non-2xx response from the backend. Callers surface it
// as a non-fatal "could not fetch" condition; the local cache remains
// the authoritative fallback.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// deleteResponse is the backend's reply to a notification delete.
type deleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// createResponse is the backend's reply to a notification create.
type createResponse struct {
	Success      bool                `json:"success"`
	Notification *model.Notification `json:"notif"`
	Error        string              `json:"error"`
}

// locationResponse is the one-shot live location lookup payload.
type locationResponse struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// NewNotification carries the fields of a notification being composed.
type NewNotification struct {
	Title   string
	Message string
	Sender  string
	Type    model.NotificationType

	// TargetStudentIDs selects recipients; "all" broadcasts.
	TargetStudentIDs string

	// ImageName and ImageData hold an optional attachment.
	ImageName string
	ImageData []byte
}
