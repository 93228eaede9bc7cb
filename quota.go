package throttle

import "time"

// Quota is an immutable rate specification: count events per period, plus
// an optional burst allowance on top of the steady-state count.
type Quota struct {
	Period       time.Duration
	Count        int64
	MaximumBurst int64
}

// Limit returns the bucket's full capacity: Count plus MaximumBurst.
func (q Quota) Limit() int64 {
	return q.Count + q.MaximumBurst
}

// Option configures a Quota at construction time.
type Option func(*Quota)

// WithMaximumBurst sets additional headroom above the steady-state count.
func WithMaximumBurst(burst int64) Option {
	return func(q *Quota) {
		q.MaximumBurst = burst
	}
}

// NewQuota builds a Quota from an explicit period and count. period must be
// positive; count and the configured burst must be non-negative.
func NewQuota(period time.Duration, count int64, opts ...Option) (Quota, error) {
	q := Quota{Period: period, Count: count}
	for _, opt := range opts {
		opt(&q)
	}
	if q.Period <= 0 {
		return Quota{}, &InvalidConfigurationError{Field: "period", Message: "must be positive"}
	}
	if q.Count < 0 {
		return Quota{}, &InvalidConfigurationError{Field: "count", Message: "must be non-negative"}
	}
	if q.MaximumBurst < 0 {
		return Quota{}, &InvalidConfigurationError{Field: "maximum_burst", Message: "must be non-negative"}
	}
	return q, nil
}

// PerSecond builds a Quota admitting count events per second.
func PerSecond(count int64, opts ...Option) (Quota, error) {
	return NewQuota(time.Second, count, opts...)
}

// PerMinute builds a Quota admitting count events per minute.
func PerMinute(count int64, opts ...Option) (Quota, error) {
	return NewQuota(time.Minute, count, opts...)
}

// PerHour builds a Quota admitting count events per hour.
func PerHour(count int64, opts ...Option) (Quota, error) {
	return NewQuota(time.Hour, count, opts...)
}

// PerDay builds a Quota admitting count events per day.
func PerDay(count int64, opts ...Option) (Quota, error) {
	return NewQuota(24*time.Hour, count, opts...)
}
