// Package stream maintains the live-position subscription: a single
// long-lived server-sent-event connection scoped to one bus number.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

// State is the connection state of a subscription.
type State int32

const (
	StateUnconnected State = iota
	StateConnecting
	StateOpen
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// noDataPayload is the literal the feed emits when it has nothing for
// the requested bus yet. Such events are silently ignored.
const noDataPayload = "undefined"

// Update is one delivery from the subscription. Either Sample is set
// (with First marking the first successful sample of this
// subscription) or Err reports a transport failure, which is terminal:
// the connection has been closed and no further updates follow until
// the caller resubscribes.
type Update struct {
	Sample model.PositionSample
	First  bool
	Err    error
}

// Client owns at most one live subscription at a time. Subscribing
// again (same or different bus) tears down the previous connection
// before opening the new one.
type Client struct {
	baseURL string
	log     *zap.Logger

	// httpClient has no overall timeout: the event stream is long-lived
	// by design. Cancellation happens through the session context.
	httpClient *http.Client

	mu      sync.Mutex
	current *session
}

// session is one subscription lifetime: connection, reader goroutine,
// and delivery channel.
type session struct {
	cancel  context.CancelFunc
	updates chan Update
	state   atomic.Int32
	gotOne  bool
}

// NewClient creates a stream client for the given feed base URL.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
		httpClient: &http.Client{},
	}
}

// Subscribe opens a push connection for the given bus number, tearing
// down any prior subscription first. The returned channel delivers
// position updates and, on transport failure, a final Update carrying
// the error. The channel is closed when the subscription ends.
func (c *Client) Subscribe(busNo, token string) (<-chan Update, error) {
	if strings.TrimSpace(busNo) == "" {
		return nil, fmt.Errorf("bus number is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// One open connection per client: close the old one before the new
	// one starts delivering.
	if c.current != nil {
		c.current.stop()
		c.current = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		cancel:  cancel,
		updates: make(chan Update, 16),
	}
	s.state.Store(int32(StateConnecting))
	c.current = s

	u := c.baseURL + "/substream?busNo=" + url.QueryEscape(busNo)
	if token != "" {
		u += "&auth=" + url.QueryEscape(token)
	}

	go c.run(ctx, s, u, busNo)

	return s.updates, nil
}

// Unsubscribe closes the active subscription, if any, returning the
// client to the unconnected state. Safe to call repeatedly.
func (c *Client) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.stop()
		c.current = nil
	}
}

// State reports the state of the active subscription, or
// StateUnconnected when there is none.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return StateUnconnected
	}
	return State(c.current.state.Load())
}

// stop tears down a session. The reader goroutine closes the updates
// channel when it observes the cancelled context.
func (s *session) stop() {
	s.state.Store(int32(StateUnconnected))
	s.cancel()
}

// run opens the connection and pumps events until the context is
// cancelled or the transport fails.
func (c *Client) run(ctx context.Context, s *session, streamURL, busNo string) {
	defer close(s.updates)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		c.fail(s, fmt.Errorf("creating stream request: %w", err))
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.fail(s, fmt.Errorf("opening stream for bus %s: %w", busNo, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.fail(s, fmt.Errorf("stream for bus %s returned status %d", busNo, resp.StatusCode))
		return
	}

	s.state.Store(int32(StateOpen))
	c.log.Debug("stream open", zap.String("bus", busNo))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		// SSE framing: "data:" lines accumulate, a blank line
		// dispatches the event, everything else (event:, id:, retry:,
		// comments) is irrelevant to this feed.
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(after, " "))
			continue
		}
		if line != "" {
			continue
		}
		if data.Len() == 0 {
			continue
		}

		payload := data.String()
		data.Reset()
		c.dispatch(s, busNo, payload)
	}

	if ctx.Err() != nil {
		return
	}

	err = scanner.Err()
	if err == nil {
		err = fmt.Errorf("stream for bus %s closed by server", busNo)
	}
	c.fail(s, err)
}

// dispatch parses one event payload and delivers the resulting sample.
// Malformed payloads are logged and dropped without touching the
// connection state.
func (c *Client) dispatch(s *session, busNo, payload string) {
	if payload == noDataPayload {
		return
	}

	sample, err := model.ParsePositionSample([]byte(payload), time.Now())
	if err != nil {
		c.log.Warn("discarding malformed stream payload",
			zap.String("bus", busNo), zap.Error(err))
		return
	}

	first := !s.gotOne

	select {
	case s.updates <- Update{Sample: sample, First: first}:
		s.gotOne = true
	default:
		// Drop when the consumer lags; only the latest position matters.
		// gotOne stays false until a First-flagged sample actually lands,
		// so the one-shot signal cannot be lost to a full buffer.
	}
}

// fail marks the session errored and delivers the terminal error. The
// connection is closed by the caller's deferred cleanup; no automatic
// reconnect is attempted, resubscription is the owner's choice.
func (c *Client) fail(s *session, err error) {
	s.state.Store(int32(StateErrored))
	c.log.Error("stream connection failed", zap.Error(err))

	// The terminal error must reach the consumer even when it is a full
	// buffer behind: evict one pending position to make room. Positions
	// are disposable, the error is not.
	select {
	case s.updates <- Update{Err: err}:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- Update{Err: err}:
		default:
		}
	}
}
