package app

import (
	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/stream"
	appsync "github.com/pradeeshk/bus-tracker/internal/sync"
	"github.com/pradeeshk/bus-tracker/internal/tracker"
)

// syncDoneMsg carries the outcome of one sync pass.
type syncDoneMsg struct {
	res appsync.Result
	err error
}

// snapshotMsg carries a fresh cache read, used after local mutations
// that do not warrant a remote fetch.
type snapshotMsg struct {
	notifs []model.Notification
}

type markReadDoneMsg struct {
	id  string
	err error
}

type deleteDoneMsg struct {
	id  string
	err error
}

type sendDoneMsg struct {
	notif *model.Notification
	err   error
}

// reloadDoneMsg carries the result of a manual one-shot location fetch.
type reloadDoneMsg struct {
	sample model.PositionSample
	err    error
}

// streamUpdateMsg carries the next live feed update; ok is false when
// the subscription channel closed.
type streamUpdateMsg struct {
	u  stream.Update
	ok bool
}

type freshnessMsg struct {
	f tracker.Freshness
}

type monitorStoppedMsg struct{}
