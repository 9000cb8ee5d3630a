package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Equal reports whether two coordinates are exactly the same point.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Lat == other.Lat && c.Long == other.Long
}

// PositionSample is one live position update for a tracked bus.
// ReceivedAt is the client-side arrival time and drives staleness
// classification; the server timestamp is informational only.
type PositionSample struct {
	Coordinate

	// ServerTime is the timestamp asserted by the feed, when present.
	ServerTime time.Time `json:"-"`

	// ReceivedAt is when this sample arrived on the client.
	ReceivedAt time.Time `json:"-"`
}

// positionWire tolerates the field variants the feed is known to emit:
// "long" vs "lon" for longitude and "ts" vs "last" for the timestamp,
// which may be epoch milliseconds or an RFC 3339 string.
type positionWire struct {
	Lat  *float64        `json:"lat"`
	Long *float64        `json:"long"`
	Lon  *float64        `json:"lon"`
	TS   json.RawMessage `json:"ts"`
	Last json.RawMessage `json:"last"`
}

// ParsePositionSample decodes a feed payload into a PositionSample.
// receivedAt is recorded as the arrival time of the sample.
func ParsePositionSample(data []byte, receivedAt time.Time) (PositionSample, error) {
	var w positionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return PositionSample{}, fmt.Errorf("decoding position payload: %w", err)
	}

	if w.Lat == nil {
		return PositionSample{}, fmt.Errorf("position payload missing lat")
	}
	lon := w.Long
	if lon == nil {
		lon = w.Lon
	}
	if lon == nil {
		return PositionSample{}, fmt.Errorf("position payload missing long/lon")
	}

	s := PositionSample{
		Coordinate: Coordinate{Lat: *w.Lat, Long: *lon},
		ReceivedAt: receivedAt,
	}

	raw := w.TS
	if raw == nil {
		raw = w.Last
	}
	if raw != nil {
		s.ServerTime = parseFlexibleTime(raw)
	}

	return s, nil
}

// parseFlexibleTime accepts epoch milliseconds or an RFC 3339 string.
// A zero time is returned for anything unrecognized; the caller treats
// the server timestamp as best-effort.
func parseFlexibleTime(raw json.RawMessage) time.Time {
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
