package gbdt

import (
	"runtime"
	"sync"
)

// parallelThreshold is the row count below which work stays on the calling
// goroutine.
const parallelThreshold = 1000

// parallelize splits [0, items) into one contiguous range per CPU and runs fn
// on each range concurrently. Below threshold fn runs once over everything.
func parallelize(items, threshold int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
