package xdr

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// chunkElements is the number of elements converted by one kernel task.
// Arrays at or below this size are converted on the calling goroutine.
const chunkElements = 1 << 16

// forChunks runs fn over disjoint [lo, hi) ranges covering [0, n). Each task
// returns the index of its first failing element or -1. The smallest failing
// index across all tasks is returned, so the reported element does not depend
// on scheduling.
func forChunks(n, workers int, fn func(lo, hi int) int) int {
	if n <= chunkElements || workers == 1 {
		return fn(0, n)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunks := (n + chunkElements - 1) / chunkElements
	failed := make([]int, chunks)

	var g errgroup.Group
	g.SetLimit(workers)
	for c := 0; c < chunks; c++ {
		lo := c * chunkElements
		hi := min(lo+chunkElements, n)
		g.Go(func() error {
			failed[c] = fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	for _, idx := range failed {
		if idx >= 0 {
			return idx
		}
	}
	return -1
}
