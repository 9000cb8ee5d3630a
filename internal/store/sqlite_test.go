package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/store"
	"github.com/pradeeshk/bus-tracker/tests/testutil"
)

func notifAt(id string, t time.Time) model.Notification {
	return model.Notification{
		ID:      id,
		Title:   "Bus update " + id,
		Message: "Route 7 detail for " + id,
		Sender:  "Transport Incharge",
		Type:    model.NotificationInfo,
		Time:    t,
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	err := s.UpsertNotifications(ctx, []model.Notification{
		notifAt("a", base),
		notifAt("b", base.Add(time.Minute)),
	})
	require.NoError(t, err)

	got, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestUpsertReplacesByID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	first := notifAt("a", base)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{first}))

	updated := first
	updated.Title = "Bus delayed"
	updated.Type = model.NotificationWarning
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{updated}))

	got, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bus delayed", got[0].Title)
	assert.Equal(t, model.NotificationWarning, got[0].Type)
}

func TestRetentionTrimKeepsNewest(t *testing.T) {
	s := testutil.NewTestStoreWithLimit(t, 5)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	var notifs []model.Notification
	for i := 0; i < 8; i++ {
		notifs = append(notifs, notifAt(fmt.Sprintf("n%02d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, s.UpsertNotifications(ctx, notifs))

	got, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 5)

	// The five newest survive; n00..n02 are trimmed.
	assert.Equal(t, "n07", got[0].ID)
	assert.Equal(t, "n03", got[4].ID)
}

func TestRetentionTrimSingleTransaction(t *testing.T) {
	s := testutil.NewTestStoreWithLimit(t, 3)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		notifAt("a", base),
		notifAt("b", base.Add(time.Minute)),
		notifAt("c", base.Add(2*time.Minute)),
	}))

	// A batch of older records cannot revive beyond the limit, and
	// older entries lose to newer ones regardless of batch order.
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		notifAt("old1", base.Add(-time.Hour)),
		notifAt("d", base.Add(3*time.Minute)),
	}))

	got, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "b", got[2].ID)
}

func TestLatestNotificationTime(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	wm, err := s.LatestNotificationTime(ctx)
	require.NoError(t, err)
	assert.True(t, wm.IsZero(), "empty cache should yield the zero time")

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		notifAt("a", base),
		notifAt("b", base.Add(2*time.Minute)),
		notifAt("c", base.Add(time.Minute)),
	}))

	wm, err = s.LatestNotificationTime(ctx)
	require.NoError(t, err)
	assert.True(t, wm.Equal(base.Add(2*time.Minute)), "watermark should be the max time, got %v", wm)
}

func TestGetNotificationByID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{notifAt("a", base)}))

	got, err := s.GetNotificationByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = s.GetNotificationByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkNotificationRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{notifAt("a", base)}))

	require.NoError(t, s.MarkNotificationRead(ctx, "a"))

	got, err := s.GetNotificationByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Read)

	// Idempotent, and absent ids are a no-op.
	require.NoError(t, s.MarkNotificationRead(ctx, "a"))
	require.NoError(t, s.MarkNotificationRead(ctx, "missing"))
}

func TestDeleteNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		notifAt("a", base),
		notifAt("b", base.Add(time.Minute)),
	}))

	require.NoError(t, s.DeleteNotification(ctx, "a"))
	require.NoError(t, s.DeleteNotification(ctx, "a")) // absent now, still fine

	got, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestTimeTieBreakByID(t *testing.T) {
	s := testutil.NewTestStoreWithLimit(t, 2)
	ctx := context.Background()

	at := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		notifAt("a", at),
		notifAt("b", at),
		notifAt("c", at),
	}))

	got, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Equal times fall back to id ordering, so trimming stays
	// deterministic.
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}
