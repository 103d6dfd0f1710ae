// Command containerbench exercises the map, queue, and stack containers
// from this module under a configurable amount of concurrent load and
// prints basic throughput numbers. It is a demo and a manual stress rig,
// not a substitute for the package tests.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/orizon-lang/orizon-containers/container"
	"github.com/orizon-lang/orizon-containers/internal/stress"
)

func main() {
	var (
		producers int
		consumers int
		perWorker int
		mapKeys   int
	)

	flag.IntVar(&producers, "producers", 4, "number of queue/stack producer goroutines")
	flag.IntVar(&consumers, "consumers", 4, "number of queue/stack consumer goroutines")
	flag.IntVar(&perWorker, "per-worker", 100000, "items pushed by each producer")
	flag.IntVar(&mapKeys, "map-keys", 200000, "number of keys inserted into the map demo")
	flag.Parse()

	fmt.Println("orizon-containers bench")
	fmt.Println("=======================")

	runQueueDemo(producers, consumers, perWorker)
	runStackDemo(producers, consumers, perWorker)
	runMapDemo(mapKeys)
}

func runQueueDemo(producers, consumers, perWorker int) {
	q := container.NewQueue[int]()

	start := time.Now()
	res := stress.Run(producers, consumers, perWorker, func(p, i int) {
		q.Push(p*perWorker + i)
	}, func() bool {
		_, ok := q.Pop()
		return ok
	})
	elapsed := time.Since(start)

	fmt.Printf("queue: %d producers, %d consumers, %d pushed, %d popped, empty=%v, %v\n",
		producers, consumers, res.Produced, res.Consumed, q.Empty(), elapsed)
}

func runStackDemo(pushers, poppers, perWorker int) {
	s := container.NewStack[int]()

	start := time.Now()
	res := stress.Run(pushers, poppers, perWorker, func(p, i int) {
		s.Push(p*perWorker + i)
	}, func() bool {
		_, ok := s.Pop()
		return ok
	})
	elapsed := time.Since(start)

	fmt.Printf("stack: %d pushers, %d poppers, %d pushed, %d popped, empty=%v, %v\n",
		pushers, poppers, res.Produced, res.Consumed, s.Empty(), elapsed)
}

func runMapDemo(keys int) {
	m := container.NewMap[int, int](func(a, b int) bool { return a < b }, container.NoLock{})

	start := time.Now()
	for i := 0; i < keys; i++ {
		m.Set(i, i*i)
	}
	insertElapsed := time.Since(start)

	ok := m.CheckInvariants()

	start = time.Now()
	min, _, _ := m.Min()
	max, _, _ := m.Max()
	lookupElapsed := time.Since(start)

	fmt.Printf("map: %d keys inserted in %v, invariants ok=%v, min=%d max=%d (%v)\n",
		keys, insertElapsed, ok, min, max, lookupElapsed)
}
