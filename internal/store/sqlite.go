package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

// DefaultRetentionLimit bounds the cache when no explicit limit is set.
const DefaultRetentionLimit = 30

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db    *sqlx.DB
	limit int
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
// retentionLimit bounds the number of cached notifications; values
// below 1 fall back to DefaultRetentionLimit.
func NewSQLiteStore(dbPath string, retentionLimit int) (*SQLiteStore, error) {
	if retentionLimit < 1 {
		retentionLimit = DefaultRetentionLimit
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection: every pooled connection to ":memory:" would
	// otherwise see its own empty database, and the cache is small
	// enough that serialized access costs nothing.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, limit: retentionLimit}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertNotifications inserts or replaces a batch of notifications and
// trims the cache to the retention limit. Both happen in a single
// transaction so readers never observe a partially trimmed cache.
func (s *SQLiteStore) UpsertNotifications(
	ctx context.Context,
	notifs []model.Notification,
) error {
	if len(notifs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, title, message, sender, type, image_ref, time, read
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range notifs {
		_, err = stmt.ExecContext(ctx,
			n.ID, n.Title, n.Message, n.Sender, string(n.Type),
			n.ImageRef, n.Time.UTC(), boolToInt(n.Read),
		)
		if err != nil {
			return fmt.Errorf("upserting notification %s: %w", n.ID, err)
		}
	}

	// Retention trim: keep the newest records up to the limit. Ties on
	// time break on id so a trim pass is deterministic.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM notifications WHERE id NOT IN (
			SELECT id FROM notifications
			ORDER BY time DESC, id DESC
			LIMIT ?
		)`, s.limit)
	if err != nil {
		return fmt.Errorf("trimming notifications: %w", err)
	}

	return tx.Commit()
}

// GetNotifications retrieves all cached notifications ordered by time
// descending.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications ORDER BY time DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}

	return notifs, rows.Err()
}

// GetNotificationByID retrieves a single notification by its ID.
// Returns ErrNotFound when no record exists.
func (s *SQLiteStore) GetNotificationByID(
	ctx context.Context,
	id string,
) (*model.Notification, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM notifications WHERE id = ?", id,
	)

	n, err := scanNotificationRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting notification %s: %w", id, err)
	}

	return &n, nil
}

// LatestNotificationTime returns the creation time of the newest cached
// notification, or the zero time when the cache is empty.
func (s *SQLiteStore) LatestNotificationTime(
	ctx context.Context,
) (time.Time, error) {
	var latest time.Time
	err := s.db.GetContext(ctx, &latest,
		"SELECT time FROM notifications ORDER BY time DESC LIMIT 1",
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("reading latest notification time: %w", err)
	}
	return latest, nil
}

// DeleteNotification removes a notification by ID. Deleting an absent
// id is a no-op.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// MarkNotificationRead marks a single notification as read. The
// conditional update makes repeat calls and absent ids no-ops, and the
// flag never reverts to unread.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ? AND read = 0", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n        model.Notification
		typ      string
		readInt  int
		notifyAt time.Time
	)

	err := rows.Scan(
		&n.ID, &n.Title, &n.Message, &n.Sender, &typ,
		&n.ImageRef, &notifyAt, &readInt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Type = model.NotificationType(typ)
	n.Time = notifyAt
	n.Read = readInt != 0

	return n, nil
}

// scanNotificationRow scans a single notification from a sqlx.Row.
func scanNotificationRow(row *sqlx.Row) (model.Notification, error) {
	var (
		n        model.Notification
		typ      string
		readInt  int
		notifyAt time.Time
	)

	err := row.Scan(
		&n.ID, &n.Title, &n.Message, &n.Sender, &typ,
		&n.ImageRef, &notifyAt, &readInt,
	)
	if err != nil {
		return model.Notification{}, err
	}

	n.Type = model.NotificationType(typ)
	n.Time = notifyAt
	n.Read = readInt != 0

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
