// Package parallel splits index ranges across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultWorkers is the worker count used when a caller passes workers < 1
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// For divides [0, n) into contiguous chunks, one per worker, and calls fn
// for each chunk concurrently. It returns once every chunk has completed.
func For(workers, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers < 1 {
		workers = DefaultWorkers()
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	perWorker := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// Do runs every task concurrently and waits for all of them
func Do(tasks ...func()) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task func()) {
			defer wg.Done()
			task()
		}(task)
	}
	wg.Wait()
}
