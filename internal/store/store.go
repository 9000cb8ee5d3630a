package store

import (
	"context"
	"errors"
	"time"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

// ErrNotFound is returned by point lookups when no record exists for
// the given id. Mutating operations treat absence as a no-op instead.
var ErrNotFound = errors.New("notification not found")

// Store defines the persistence interface for the local notification
// cache. A write (upsert plus retention trim) is one atomic unit: a
// concurrent reader observes either the pre-write or post-write state.
type Store interface {
	// UpsertNotifications inserts or replaces records by id, then trims
	// the cache to its retention limit in the same transaction.
	UpsertNotifications(ctx context.Context, notifs []model.Notification) error

	// GetNotifications returns all cached records ordered by time
	// descending. An empty cache yields an empty slice, not an error.
	GetNotifications(ctx context.Context) ([]model.Notification, error)

	// GetNotificationByID returns the record or ErrNotFound.
	GetNotificationByID(ctx context.Context, id string) (*model.Notification, error)

	// LatestNotificationTime returns the maximum Time across all cached
	// records, or the zero time when the cache is empty. This is the
	// synchronization watermark.
	LatestNotificationTime(ctx context.Context) (time.Time, error)

	// DeleteNotification removes a record; absent ids are a no-op.
	DeleteNotification(ctx context.Context, id string) error

	// MarkNotificationRead flips a record's read flag to true. It is
	// idempotent and a no-op for absent ids.
	MarkNotificationRead(ctx context.Context, id string) error

	Close() error
}
