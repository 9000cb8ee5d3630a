package sync_test

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradeeshk/bus-tracker/internal/model"
	appsync "github.com/pradeeshk/bus-tracker/internal/sync"
	"github.com/pradeeshk/bus-tracker/tests/testutil"
)

// fakeFetcher serves scripted deltas and records the watermarks it was
// asked for.
type fakeFetcher struct {
	notifs []model.Notification
	err    error

	mu         stdsync.Mutex
	watermarks []time.Time

	// block, when set, holds the fetch open until released. Used to
	// provoke an overlapping sync.
	block chan struct{}
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watermarks)
}

func (f *fakeFetcher) FetchNotificationsAfter(ctx context.Context, watermark time.Time) ([]model.Notification, error) {
	f.mu.Lock()
	f.watermarks = append(f.watermarks, watermark)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}

	var out []model.Notification
	for _, n := range f.notifs {
		if n.Time.After(watermark) {
			out = append(out, n)
		}
	}
	return out, nil
}

func notifAt(id string, t time.Time) model.Notification {
	return model.Notification{
		ID:      id,
		Title:   "Update " + id,
		Message: "Detail for " + id,
		Sender:  "Transport Incharge",
		Type:    model.NotificationInfo,
		Time:    t,
	}
}

func TestSyncFirstRunFetchesEverything(t *testing.T) {
	s := testutil.NewTestStore(t)
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := &fakeFetcher{notifs: []model.Notification{
		notifAt("a", base),
		notifAt("b", base.Add(time.Minute)),
	}}
	e := appsync.NewEngine(s, f, nil)

	res, err := e.Sync(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.RemoteErr)

	assert.Empty(t, res.Cached)
	require.Len(t, res.Merged, 2)
	assert.Equal(t, "b", res.Merged[0].ID)
	assert.Equal(t, "a", res.Merged[1].ID)

	// An empty cache asks for everything.
	require.Len(t, f.watermarks, 1)
	assert.True(t, f.watermarks[0].IsZero())
	assert.Equal(t, 2, res.Unread())
}

func TestSyncIncrementalDelta(t *testing.T) {
	s := testutil.NewTestStore(t)
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := &fakeFetcher{notifs: []model.Notification{
		notifAt("a", base),
		notifAt("b", base.Add(time.Minute)),
	}}
	e := appsync.NewEngine(s, f, nil)

	_, err := e.Sync(context.Background())
	require.NoError(t, err)

	// The server gains one record; the next pass must ask beyond the
	// cached maximum and receive only the new one.
	f.notifs = append(f.notifs, notifAt("c", base.Add(2*time.Minute)))

	res, err := e.Sync(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.RemoteErr)

	require.Len(t, f.watermarks, 2)
	assert.True(t, f.watermarks[1].Equal(base.Add(time.Minute)),
		"second pass watermark should be the cached maximum, got %v", f.watermarks[1])

	require.Len(t, res.Fresh, 1)
	assert.Equal(t, "c", res.Fresh[0].ID)
	require.Len(t, res.Merged, 3)
	assert.Equal(t, "c", res.Merged[0].ID)
}

func TestSyncNoNewRecords(t *testing.T) {
	s := testutil.NewTestStore(t)
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := &fakeFetcher{notifs: []model.Notification{notifAt("a", base)}}
	e := appsync.NewEngine(s, f, nil)

	_, err := e.Sync(context.Background())
	require.NoError(t, err)

	res, err := e.Sync(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.RemoteErr)
	assert.Empty(t, res.Fresh)
	require.Len(t, res.Merged, 1)
}

func TestSyncRemoteFailureKeepsCache(t *testing.T) {
	s := testutil.NewTestStore(t)
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := &fakeFetcher{notifs: []model.Notification{notifAt("a", base)}}
	e := appsync.NewEngine(s, f, nil)

	_, err := e.Sync(context.Background())
	require.NoError(t, err)

	f.err = errors.New("connection refused")

	res, err := e.Sync(context.Background())
	require.NoError(t, err, "remote failure is reported in-band, not as an error")
	require.Error(t, res.RemoteErr)

	// The cached view is still served.
	require.Len(t, res.Merged, 1)
	assert.Equal(t, "a", res.Merged[0].ID)

	got, err := s.GetNotifications(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSyncOverlapRejected(t *testing.T) {
	s := testutil.NewTestStore(t)
	f := &fakeFetcher{block: make(chan struct{})}
	e := appsync.NewEngine(s, f, nil)

	done := make(chan error, 1)
	go func() {
		_, err := e.Sync(context.Background())
		done <- err
	}()

	// Wait for the first sync to reach the (blocked) fetch.
	require.Eventually(t, func() bool {
		return f.calls() == 1
	}, time.Second, 5*time.Millisecond)

	_, err := e.Sync(context.Background())
	assert.ErrorIs(t, err, appsync.ErrSyncInProgress)

	close(f.block)
	require.NoError(t, <-done)

	// With the first pass finished the engine accepts syncs again.
	f.block = nil
	_, err = e.Sync(context.Background())
	require.NoError(t, err)
}

func TestSyncRedeliveredRecordDeduplicated(t *testing.T) {
	s := testutil.NewTestStore(t)
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := &fakeFetcher{notifs: []model.Notification{notifAt("a", base)}}
	e := appsync.NewEngine(s, f, nil)

	_, err := e.Sync(context.Background())
	require.NoError(t, err)

	// Simulate a server that re-delivers the same record with a newer
	// timestamp alongside a genuinely new one.
	f.notifs = []model.Notification{
		notifAt("a", base.Add(time.Minute)),
		notifAt("b", base.Add(2*time.Minute)),
	}

	res, err := e.Sync(context.Background())
	require.NoError(t, err)

	// The merged view for this very pass must not list the id twice,
	// nor count it twice as unread.
	require.Len(t, res.Merged, 2, "redelivered id must appear once in the merged view")
	assert.Equal(t, "b", res.Merged[0].ID)
	assert.Equal(t, "a", res.Merged[1].ID)
	assert.True(t, res.Merged[1].Time.Equal(base.Add(time.Minute)), "the fresh copy wins")
	assert.Equal(t, 2, res.Unread())

	got, err := s.GetNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2, "upsert by id must not duplicate records")
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}
