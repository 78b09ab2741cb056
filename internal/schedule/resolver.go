package schedule

// ResolveOpen combines the recurring windows configured for a weekday
// with the blocks applied on a concrete date and returns the remaining
// open intervals, disjoint and sorted ascending by start.
//
// Windows are merged first so overlapping configuration rows cannot
// produce duplicate slots. An empty result means the salon is closed
// that day; that is a valid answer, not an error.
func ResolveOpen(windows []Interval, blocked []Interval) []Interval {
	open := Merge(windows)

	for _, b := range blocked {
		var remaining []Interval
		for _, w := range open {
			remaining = append(remaining, w.Subtract(b)...)
		}
		open = remaining
	}

	return open
}
