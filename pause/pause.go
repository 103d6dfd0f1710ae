// Package pause implements the adaptive spin/back-off heuristic shared by
// the lock-free queue and stack in this module when a consumer finds the
// head already locked by a concurrent popper.
//
// The heuristic is lifted directly from the reference implementation's
// m_pop_pause_cnt field: remember roughly how many spin iterations the
// last successful lock acquisition burned, spin that many times next time
// before giving up and resampling, and nudge the estimate down by one each
// time it proves too generous. It is a throughput tuning knob only; no
// correctness property anywhere in this module depends on it. A Backoff
// that always resamples immediately (an estimate of 1) is still correct, just
// slower under contention.
package pause

import (
	"runtime"
	"sync/atomic"
)

const minBurst = 1

// Backoff tracks an adaptively sized spin burst. The zero value is ready
// to use and starts at a one-iteration burst, matching the reference
// implementation's initial m_pop_pause_cnt of 1.
//
// A Backoff is safe for concurrent use: every lock-protected section in
// this module that races on a shared head pointer shares a single Backoff,
// so the estimate reflects contention across every goroutine touching it.
type Backoff struct {
	estimate atomic.Int64
}

// New returns a Backoff ready for use.
func New() *Backoff {
	b := &Backoff{}
	b.estimate.Store(minBurst)
	return b
}

// Spin burns CPU in bursts sized by the current estimate, calling
// runtime.Gosched between bursts so other goroutines on the same P get a
// chance to run, until ready reports true. It records how many iterations
// the burst actually took and folds that back into the estimate via
// record, then returns.
//
// Spin never contributes to correctness: ready is polled under the
// caller's own retry loop, and Spin may return having burned more or
// fewer iterations than any given invocation of ready strictly required.
func (b *Backoff) Spin(ready func() bool) {
	burst := b.estimate.Load()
	if burst < minBurst {
		burst = minBurst
	}

	var total, sinceYield int64
	for !ready() {
		total++
		sinceYield++
		if sinceYield >= burst {
			runtime.Gosched()
			sinceYield = 0
		}
	}
	b.record(total)
}

// record folds the most recent burst's actual length into the running
// estimate, mirroring setPopPauseCnt from the reference implementation:
// shrink the estimate by one when the burst undershot it, or jump straight
// to the observed length when the burst overshot.
func (b *Backoff) record(actual int64) {
	for {
		old := b.estimate.Load()
		var next int64
		if actual <= old {
			next = old - 1
			if next < minBurst {
				next = minBurst
			}
		} else {
			next = actual
		}
		if next == old || b.estimate.CompareAndSwap(old, next) {
			return
		}
	}
}
