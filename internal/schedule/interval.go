// Package schedule holds the pure slot arithmetic: half-open minute
// intervals, the open-window resolver and the slot generator. Nothing
// here touches storage or the clock.
package schedule

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// Interval is a half-open range [Start, End) in minutes from midnight.
type Interval struct {
	Start int
	End   int
}

func NewInterval(start, end int) (Interval, error) {
	if start < 0 || end > 24*60 || start >= end {
		return Interval{}, ErrInvalidInterval
	}

	return Interval{Start: start, End: end}, nil
}

// Overlaps uses half-open semantics: intervals that only share a
// boundary minute do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Subtract removes the overlapping portion of blocker from w and
// returns the 0, 1 or 2 remainders. Zero-length remainders are dropped.
func (w Interval) Subtract(blocker Interval) []Interval {
	if !w.Overlaps(blocker) {
		return []Interval{w}
	}

	var rest []Interval
	if blocker.Start > w.Start {
		rest = append(rest, Interval{Start: w.Start, End: blocker.Start})
	}
	if blocker.End < w.End {
		rest = append(rest, Interval{Start: blocker.End, End: w.End})
	}

	return rest
}

// Merge sorts intervals by start and coalesces overlapping or touching
// ones into a disjoint ascending list.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// ParseClock converts "HH:MM" to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || h*60+m > 24*60 {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}

	return h*60 + m, nil
}

// FormatClock converts minutes from midnight back to "HH:MM".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseInterval builds an Interval from two "HH:MM" strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}

	return NewInterval(s, e)
}
