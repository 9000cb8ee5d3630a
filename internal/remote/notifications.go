package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"time"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

// FetchNotificationsAfter retrieves all notifications strictly newer
// than the given watermark. A zero watermark fetches everything the
// server has. The result may be empty.
func (c *Client) FetchNotificationsAfter(
	ctx context.Context,
	watermark time.Time,
) ([]model.Notification, error) {
	after := int64(0)
	if !watermark.IsZero() {
		after = watermark.UnixMilli()
	}

	var notifs []model.Notification
	path := fmt.Sprintf("/api/notifications?after=%d", after)
	if err := c.Get(ctx, path, &notifs); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	return notifs, nil
}

// DeleteNotification asks the backend to delete a notification. The
// backend reports failure in-band with a success flag.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	var resp deleteResponse
	path := "/api/notifications/" + url.PathEscape(id)
	if err := c.Delete(ctx, path, &resp); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "delete failed"
		}
		return fmt.Errorf("deleting notification %s: %s", id, msg)
	}

	return nil
}

// CreateNotification sends a new notification as a multipart form,
// attaching the image when one is provided. On success it returns the
// record as created by the server (with its assigned id and time).
func (c *Client) CreateNotification(
	ctx context.Context,
	n NewNotification,
) (*model.Notification, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":            n.Title,
		"message":          n.Message,
		"sender":           n.Sender,
		"type":             string(n.Type),
		"targetStudentIds": n.TargetStudentIDs,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", name, err)
		}
	}

	if len(n.ImageData) > 0 {
		part, err := w.CreateFormFile("image", n.ImageName)
		if err != nil {
			return nil, fmt.Errorf("creating image form part: %w", err)
		}
		if _, err := part.Write(n.ImageData); err != nil {
			return nil, fmt.Errorf("writing image data: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	var resp createResponse
	err := c.PostRaw(ctx, "/api/notifications", w.FormDataContentType(), buf.Bytes(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	if !resp.Success || resp.Notification == nil {
		msg := resp.Error
		if msg == "" {
			msg = "create failed"
		}
		return nil, fmt.Errorf("creating notification: %s", msg)
	}

	return resp.Notification, nil
}

// FetchLocation performs a one-shot live location lookup for a bus,
// used by the manual refresh path alongside the streaming feed.
func (c *Client) FetchLocation(
	ctx context.Context,
	busNo string,
) (model.PositionSample, error) {
	var resp locationResponse
	path := "/get-location/obu/" + url.PathEscape(busNo)
	if err := c.Get(ctx, path, &resp); err != nil {
		return model.PositionSample{}, fmt.Errorf("fetching location for bus %s: %w", busNo, err)
	}

	return model.PositionSample{
		Coordinate: model.Coordinate{Lat: resp.Lat, Long: resp.Long},
		ReceivedAt: time.Now(),
	}, nil
}
