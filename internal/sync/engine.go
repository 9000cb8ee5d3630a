package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/store"
)

// ErrSyncInProgress is returned when Sync is called while another sync
// on the same engine is still outstanding. Overlapping syncs are
// rejected rather than queued; the caller keeps its current view and
// may simply retry later.
var ErrSyncInProgress = errors.New("sync already in progress")

// Fetcher is the remote side of the sync: it returns all notifications
// strictly newer than the watermark.
type Fetcher interface {
	FetchNotificationsAfter(ctx context.Context, watermark time.Time) ([]model.Notification, error)
}

// Result is the outcome of one sync pass.
type Result struct {
	// Cached is the local snapshot read before contacting the remote,
	// usable for an immediate local-first render. Ordered by time
	// descending.
	Cached []model.Notification

	// Fresh holds the records the remote returned beyond the watermark,
	// ordered by time descending.
	Fresh []model.Notification

	// Merged is Fresh prepended to Cached. Populated only on success;
	// on remote failure it equals Cached.
	Merged []model.Notification

	// RemoteErr is set when the delta fetch or the persist step failed.
	// The cached view stays valid; the failure is non-fatal.
	RemoteErr error
}

// Unread counts the unread notifications in the merged view.
func (r Result) Unread() int {
	n := 0
	for _, notif := range r.Merged {
		if !notif.Read {
			n++
		}
	}
	return n
}

// Engine merges the remote notification feed into the local cache
// using a watermark-based incremental protocol.
type Engine struct {
	store    store.Store
	fetcher  Fetcher
	log      *zap.Logger
	inFlight atomic.Bool
}

// NewEngine creates a sync engine over the given store and remote fetcher.
func NewEngine(s store.Store, f Fetcher, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: s, fetcher: f, log: log}
}

// Sync runs one incremental synchronization pass:
//
//  1. read the local snapshot (exposed in Result.Cached),
//  2. compute the watermark (latest cached time),
//  3. fetch records strictly newer than the watermark,
//  4. prepend them to the view and persist (which trims retention).
//
// A remote or persist failure leaves the cache untouched and is
// reported via Result.RemoteErr, not the error return; the error
// return is reserved for local read failures and overlap rejection.
// Sync must not run concurrently with itself: a second call while one
// is outstanding returns ErrSyncInProgress.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInProgress
	}
	defer e.inFlight.Store(false)

	cached, err := e.store.GetNotifications(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading cached notifications: %w", err)
	}

	res := Result{Cached: cached, Merged: cached}

	watermark, err := e.store.LatestNotificationTime(ctx)
	if err != nil {
		return res, fmt.Errorf("reading watermark: %w", err)
	}

	fresh, err := e.fetcher.FetchNotificationsAfter(ctx, watermark)
	if err != nil {
		e.log.Warn("notification delta fetch failed",
			zap.Time("watermark", watermark), zap.Error(err))
		res.RemoteErr = err
		return res, nil
	}

	if len(fresh) == 0 {
		e.log.Debug("sync complete, no new notifications",
			zap.Time("watermark", watermark))
		return res, nil
	}

	// New records are guaranteed newer than everything cached, so a
	// prepend keeps the view in reverse-chronological order once the
	// batch itself is sorted. Anything the server re-delivers at or
	// below the watermark is absorbed by upsert-by-id on persist.
	sort.SliceStable(fresh, func(i, j int) bool {
		if fresh[i].Time.Equal(fresh[j].Time) {
			return fresh[i].ID > fresh[j].ID
		}
		return fresh[i].Time.After(fresh[j].Time)
	})

	if err := e.store.UpsertNotifications(ctx, fresh); err != nil {
		e.log.Error("persisting synced notifications failed",
			zap.Int("count", len(fresh)), zap.Error(err))
		res.RemoteErr = err
		return res, nil
	}

	// A re-delivered record (same id, bumped timestamp) arrives in fresh
	// while its stale copy sits in cached; the fresh copy wins and the
	// cached one is skipped so no id appears twice in the view.
	freshIDs := make(map[string]struct{}, len(fresh))
	for _, n := range fresh {
		freshIDs[n.ID] = struct{}{}
	}

	res.Fresh = fresh
	res.Merged = make([]model.Notification, 0, len(fresh)+len(cached))
	res.Merged = append(res.Merged, fresh...)
	for _, n := range cached {
		if _, ok := freshIDs[n.ID]; ok {
			continue
		}
		res.Merged = append(res.Merged, n)
	}

	e.log.Info("sync complete",
		zap.Int("new", len(fresh)), zap.Int("total", len(res.Merged)))

	return res, nil
}
