package marketdata

import (
	"sort"
	"time"
)

// Prepare merges timeframe groups into a single bar sequence: sorted by
// timestamp ascending, exact-timestamp duplicates removed, filtered to
// [start, end]. A zero start or end leaves that bound open.
func Prepare(groups map[string][]Bar, start, end time.Time) []Bar {
	var merged []Bar
	for _, bars := range groups {
		merged = append(merged, bars...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	out := make([]Bar, 0, len(merged))
	var lastTS time.Time
	for i, bar := range merged {
		if i > 0 && bar.Timestamp.Equal(lastTS) {
			continue
		}
		lastTS = bar.Timestamp

		if !start.IsZero() && bar.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Timestamp.After(end) {
			continue
		}
		out = append(out, bar)
	}

	return out
}
