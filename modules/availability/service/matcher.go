package service

import (
	"sort"
	"time"
)

// Interval is one busy range reported by the upstream calendar.
type Interval struct {
	Start time.Time
	End   time.Time
}

// MarkBusy returns a new slot slice with availability recomputed against the
// busy intervals. Overlap is half-open [start, end): a slot whose boundary
// merely touches a busy interval stays available, so back-to-back meetings
// never block the neighbouring hour.
func MarkBusy(slots []Slot, busy []Interval) []Slot {
	merged := MergeIntervals(busy)

	out := make([]Slot, len(slots))
	for i, slot := range slots {
		out[i] = slot
		out[i].Available = !overlapsAny(slot.Start, slot.End, merged)
	}
	return out
}

// MergeIntervals sorts and coalesces overlapping busy intervals so each slot
// is tested against a minimal set. Adjacent intervals are merged too; under
// half-open semantics that changes nothing for the overlap test.
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, curr := range sorted[1:] {
		last := &merged[len(merged)-1]
		if curr.Start.After(last.End) {
			merged = append(merged, curr)
			continue
		}
		if curr.End.After(last.End) {
			last.End = curr.End
		}
	}
	return merged
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// [start, end) intersects [b.Start, b.End) iff each starts before the
		// other ends.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
