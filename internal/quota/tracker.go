// Package quota enforces the per-identity daily extraction allowance.
package quota

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

// Decision is the outcome of one check-and-increment. ResetAt is the next
// UTC midnight, which is also when the counter expires — denial message and
// actual reset always agree.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Tracker is an atomic daily usage counter keyed by caller identity. The
// check and the increment are one operation: two concurrent calls with one
// slot left never both succeed.
type Tracker interface {
	CheckAndIncrement(ctx context.Context, id entity.Identity, limit int) (Decision, error)
}

// NextUTCMidnight returns the first instant of the next UTC day.
func NextUTCMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}

// MemoryTracker is the in-process Tracker used when no Redis is configured.
// Counters live in a sync.Map keyed by (identity, UTC day); unrelated
// identities never contend on a common lock.
type MemoryTracker struct {
	now     func() time.Time
	counts  sync.Map // "identity|day" -> *int64
	sweepMu sync.Mutex
	lastDay string
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{now: time.Now}
}

// NewMemoryTrackerAt injects the clock, for tests.
func NewMemoryTrackerAt(now func() time.Time) *MemoryTracker {
	return &MemoryTracker{now: now}
}

func (t *MemoryTracker) CheckAndIncrement(_ context.Context, id entity.Identity, limit int) (Decision, error) {
	now := t.now().UTC()
	day := now.Format("2006-01-02")
	t.maybeSweep(day)

	v, _ := t.counts.LoadOrStore(id.String()+"|"+day, new(int64))
	ctr := v.(*int64)
	reset := NextUTCMidnight(now)

	for {
		cur := atomic.LoadInt64(ctr)
		if cur >= int64(limit) {
			return Decision{Allowed: false, Remaining: 0, ResetAt: reset}, nil
		}
		if atomic.CompareAndSwapInt64(ctr, cur, cur+1) {
			return Decision{Allowed: true, Remaining: limit - int(cur) - 1, ResetAt: reset}, nil
		}
	}
}

// maybeSweep drops counters from previous days once the UTC day rolls over.
func (t *MemoryTracker) maybeSweep(day string) {
	t.sweepMu.Lock()
	defer t.sweepMu.Unlock()
	if t.lastDay == day {
		return
	}
	t.lastDay = day
	suffix := "|" + day
	t.counts.Range(func(k, _ any) bool {
		key := k.(string)
		if len(key) < len(suffix) || key[len(key)-len(suffix):] != suffix {
			t.counts.Delete(k)
		}
		return true
	})
}
