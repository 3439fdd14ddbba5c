package lookup

import (
	"sort"
	"time"

	"signal-replay-lab/internal/domain"
)

// FirstAtOrAfter returns the index of the first bar whose open time is not
// before target, or -1 if every bar opens earlier.
// bars must be sorted by OpenTime ASC.
func FirstAtOrAfter(bars []domain.Bar, target time.Time) int {
	i := sort.Search(len(bars), func(i int) bool {
		return !bars[i].OpenTime.Before(target)
	})
	if i == len(bars) {
		return -1
	}
	return i
}

// Window returns the bars that open in [start, end) and close no later
// than end, preserving order. The result shares the backing array of bars.
func Window(bars []domain.Bar, start, end time.Time) []domain.Bar {
	first := FirstAtOrAfter(bars, start)
	if first < 0 {
		return nil
	}

	last := first
	for last < len(bars) {
		b := bars[last]
		if !b.OpenTime.Before(end) || b.CloseTime.After(end) {
			break
		}
		last++
	}
	return bars[first:last]
}
