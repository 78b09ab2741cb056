package schedule

import "sort"

// GenerateParams controls slot generation for one (service, date) query.
type GenerateParams struct {
	// GranularityMinutes is the salon-wide start grid. Every emitted
	// slot start is a multiple of it, regardless of service duration.
	GranularityMinutes int
	// DurationMinutes is the service duration a slot must fit.
	DurationMinutes int
	// NotBefore is the earliest allowed start in minutes from
	// midnight (now + lead time for same-day queries). Negative
	// means no floor.
	NotBefore int
}

// Generate walks the open intervals on the configured grid and returns
// the slot starts (minutes from midnight) where [t, t+duration) fits an
// open interval and overlaps no existing busy interval. The result is
// ascending and deduplicated.
func Generate(open []Interval, busy []Interval, p GenerateParams) []int {
	if p.GranularityMinutes <= 0 || p.DurationMinutes <= 0 {
		return nil
	}

	seen := make(map[int]struct{})
	var starts []int

	for _, w := range open {
		// first grid-aligned candidate at or after the window start
		t := w.Start
		if rem := t % p.GranularityMinutes; rem != 0 {
			t += p.GranularityMinutes - rem
		}

		for ; t+p.DurationMinutes <= w.End; t += p.GranularityMinutes {
			if t < p.NotBefore {
				continue
			}

			slot := Interval{Start: t, End: t + p.DurationMinutes}
			if overlapsAny(slot, busy) {
				continue
			}

			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			starts = append(starts, t)
		}
	}

	sort.Ints(starts)

	return starts
}

func overlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}

	return false
}
