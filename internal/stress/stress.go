// Package stress provides a reusable N-producer/M-consumer driver used by
// the queue and stack concurrency tests, and by cmd/containerbench. It
// exists so those call sites do not each reimplement the same
// produce-until-done, drain-then-stop shape.
package stress

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Result reports how many items a Run call pushed and popped.
type Result struct {
	Produced int64
	Consumed int64
}

// Run starts `producers` goroutines that each call push(producer, item) for
// item in [0, itemsPerProducer), and `consumers` goroutines that call pop in
// a tight loop. Once every producer has finished, Run drains the remaining
// items with the same pop loop before telling consumers to stop, so no item
// a producer pushed is left uncounted.
func Run(producers, consumers, itemsPerProducer int, push func(producer, item int), pop func() bool) Result {
	var produced, consumed atomic.Int64

	g := &errgroup.Group{}
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for i := 0; i < itemsPerProducer; i++ {
				push(p, i)
				produced.Add(1)
			}
			return nil
		})
	}

	done := make(chan struct{})
	var wgCons sync.WaitGroup
	wgCons.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer wgCons.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if pop() {
					consumed.Add(1)
				}
			}
		}()
	}

	// g.Wait never returns an error: every producer func above is
	// infallible.
	_ = g.Wait()

	total := int64(producers * itemsPerProducer)
	for consumed.Load() < total {
		if pop() {
			consumed.Add(1)
		}
	}

	close(done)
	wgCons.Wait()

	return Result{Produced: produced.Load(), Consumed: consumed.Load()}
}
