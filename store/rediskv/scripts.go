package rediskv

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// epoch is a fixed rebasing point so the TAT values scripts exchange with
// Redis stay well inside float64's exact-integer range (2^53 seconds is
// billions of years away, but keeping values small avoids any precision
// surprise in Lua's double-only arithmetic). Valid until roughly 2048,
// matching spec's stated tolerance.
const epoch int64 = 1700000000

// ScriptRunner is the optional capability a Store may expose: running the
// GCRA decision as a single atomic Redis script instead of a generic
// Get+CompareAndSwap round trip. GCRALimiter type-asserts for this
// interface the same way io.Copy probes for io.ReaderFrom/io.WriterTo
// before falling back to its generic loop.
type ScriptRunner interface {
	EvalGCRA(ctx context.Context, key string, emissionInterval, delayVariationTolerance, increment float64, qty int64) (limited bool, remaining int64, retryAfter, resetAfter time.Duration, err error)
}

// ScriptResetter is the optional capability a Store exposes to clear the
// script-backed GCRA state that EvalGCRA maintains in its own Redis key,
// separate from the hash fields Get/Set/CompareAndSwap manage.
type ScriptResetter interface {
	ResetGCRA(ctx context.Context, key string) error
}

// ResetGCRA deletes the script-backed TAT key for key, so the next EvalGCRA
// call sees a fresh bucket.
func (s *Store) ResetGCRA(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)+":gcra").Err()
}

// gcraScript implements both the "check" (qty == 0, no write) and "apply"
// (writes the new TAT) variants of spec's remote execution path in a single
// script body, branching on ARGV[3] (qty). This mirrors the teacher's own
// single gcraScript, generalized to also cover the no-write peek case and
// to rebase against a fixed epoch rather than Redis's raw TIME value.
var gcraScript = goredis.NewScript(`
local key = KEYS[1]
local emission_interval = tonumber(ARGV[1])
local dvt = tonumber(ARGV[2])
local qty = tonumber(ARGV[3])
local increment = tonumber(ARGV[4])
local epoch = tonumber(ARGV[5])

local time_parts = redis.call('TIME')
local now = (tonumber(time_parts[1]) - epoch) + (tonumber(time_parts[2]) / 1000000)

local raw = redis.call('GET', key)
local tat = now
if raw then
    tat = tonumber(raw)
end

local new_tat = math.max(now, tat) + increment
local allow_at = new_tat - dvt
local diff = now - allow_at
local remaining = math.floor(diff / emission_interval + 0.5)

local reset_after = tat - now
if reset_after == 0 then
    reset_after = -1
end

local limited = 0
local retry_after = -1

if remaining < 1 then
    limited = 1
    remaining = 0
    retry_after = emission_interval - diff
else
    if qty > 0 then
        local ttl = math.ceil(new_tat - now)
        if ttl < 1 then ttl = 1 end
        redis.call('SET', key, tostring(new_tat), 'EX', ttl)
    end
end

return { limited, remaining, tostring(retry_after), tostring(reset_after) }
`)

// EvalGCRA runs gcraScript, selecting the write-back (apply) behavior via
// qty > 0 and the no-write (check/peek) behavior via qty == 0.
func (s *Store) EvalGCRA(ctx context.Context, key string, emissionInterval, delayVariationTolerance, increment float64, qty int64) (bool, int64, time.Duration, time.Duration, error) {
	res, err := gcraScript.Run(ctx, s.client, []string{s.key(key) + ":gcra"},
		emissionInterval, delayVariationTolerance, qty, increment, epoch,
	).Slice()
	if err != nil {
		return false, 0, 0, 0, err
	}

	limited := res[0].(int64) == 1
	remaining := res[1].(int64)
	retryAfterSec, err := strconv.ParseFloat(res[2].(string), 64)
	if err != nil {
		return false, 0, 0, 0, err
	}
	resetAfterSec, err := strconv.ParseFloat(res[3].(string), 64)
	if err != nil {
		return false, 0, 0, 0, err
	}

	return limited, remaining, secondsToDuration(retryAfterSec), secondsToDuration(resetAfterSec), nil
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds < 0 {
		return -1
	}
	return time.Duration(seconds * float64(time.Second))
}
