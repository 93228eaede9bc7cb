package store

import (
	"fmt"
	"strconv"
	"time"
)

// timeLayout matches spec: microsecond precision with a UTC offset, e.g.
// "2006-01-02T15:04:05.000000-0700".
const timeLayout = "2006-01-02T15:04:05.000000-0700"

// LimitData is the per-key bucket state persisted by a Store. It is a value
// type: two instances are compared structurally via Equal for the CAS
// protocol, never by pointer identity.
type LimitData struct {
	Used      int64
	Remaining int64
	CreatedAt time.Time
	// Time is optional; nil means absent. For GCRALimiter this holds the
	// Theoretical Arrival Time.
	Time *time.Time
}

// Equal reports whether d and other represent the same bucket state.
func (d LimitData) Equal(other LimitData) bool {
	if d.Used != other.Used || d.Remaining != other.Remaining {
		return false
	}
	if !d.CreatedAt.Equal(other.CreatedAt) {
		return false
	}
	if (d.Time == nil) != (other.Time == nil) {
		return false
	}
	if d.Time != nil && !d.Time.Equal(*other.Time) {
		return false
	}
	return true
}

// WithUsedRemaining returns a copy of d with Used and Remaining replaced.
func (d LimitData) WithUsedRemaining(used, remaining int64) LimitData {
	d.Used = used
	d.Remaining = remaining
	return d
}

// WithTime returns a copy of d with Time replaced.
func (d LimitData) WithTime(t time.Time) LimitData {
	d.Time = &t
	return d
}

// Encode renders d into the string-keyed map persisted by shared stores,
// matching the wire format of spec §4.1.3/§6: integers as decimal strings,
// timestamps with microsecond precision and an explicit offset, absent Time
// as the empty string.
func (d LimitData) Encode() map[string]string {
	m := map[string]string{
		"used":       strconv.FormatInt(d.Used, 10),
		"remaining":  strconv.FormatInt(d.Remaining, 10),
		"created_at": d.CreatedAt.UTC().Format(timeLayout),
	}
	if d.Time != nil {
		m["time"] = d.Time.UTC().Format(timeLayout)
	} else {
		m["time"] = ""
	}
	return m
}

// DecodeLimitData is the inverse of Encode; it must round-trip exactly for
// any value produced by Encode.
func DecodeLimitData(m map[string]string) (LimitData, error) {
	var d LimitData

	used, err := strconv.ParseInt(m["used"], 10, 64)
	if err != nil {
		return LimitData{}, fmt.Errorf("store: decode used: %w", err)
	}
	d.Used = used

	remaining, err := strconv.ParseInt(m["remaining"], 10, 64)
	if err != nil {
		return LimitData{}, fmt.Errorf("store: decode remaining: %w", err)
	}
	d.Remaining = remaining

	createdAt, err := time.Parse(timeLayout, m["created_at"])
	if err != nil {
		return LimitData{}, fmt.Errorf("store: decode created_at: %w", err)
	}
	d.CreatedAt = createdAt

	if raw, ok := m["time"]; ok && raw != "" {
		t, err := time.Parse(timeLayout, raw)
		if err != nil {
			return LimitData{}, fmt.Errorf("store: decode time: %w", err)
		}
		d.Time = &t
	}

	return d, nil
}
