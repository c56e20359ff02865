package timeline

import "slices"

// FilterByYear returns the segments whose start falls in year. Segments
// without a parsed start are dropped.
func FilterByYear(segments []Segment, year int) []Segment {
	out := make([]Segment, 0)
	for _, seg := range segments {
		if !seg.Start.IsZero() && seg.Start.Year() == year {
			out = append(out, seg)
		}
	}
	return out
}

// FilterLocationsByYear returns the points whose start falls in year.
func FilterLocationsByYear(points []LocationPoint, year int) []LocationPoint {
	out := make([]LocationPoint, 0)
	for _, p := range points {
		if !p.StartTime.IsZero() && p.StartTime.Year() == year {
			out = append(out, p)
		}
	}
	return out
}

// HasYear reports whether year is among the extracted years.
func (r *Result) HasYear(year int) bool {
	return slices.Contains(r.Years, year)
}
