// Package partition splits a run of work items into contiguous ranges for a
// fixed worker budget.
package partition

// Range is a half-open index range [Lo, Hi) handed to one worker.
type Range struct {
	Lo int
	Hi int
}

// Len returns the number of items in the range.
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Split divides total items over at most workers ranges. The first
// total%workers ranges hold one extra item. Empty ranges are omitted, so
// fewer than workers ranges come back when total < workers.
func Split(total, workers int) []Range {
	if total <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	base := total / workers
	rest := total % workers

	ranges := make([]Range, 0, min(total, workers))
	lo := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rest {
			size++
		}
		if size == 0 {
			break
		}
		ranges = append(ranges, Range{Lo: lo, Hi: lo + size})
		lo += size
	}
	return ranges
}
