package timeline

import (
	"sort"
	"time"
)

// CountryResolver maps a coordinate to a country name.
type CountryResolver interface {
	Country(lat, lng float64) (string, bool)
}

// Options configures segment extraction.
type Options struct {
	// ProbabilityThreshold is the minimum visit confidence in [0,1].
	// Zero disables filtering.
	ProbabilityThreshold float64
}

// Processor extracts location points from normalized segments.
type Processor struct {
	resolver CountryResolver
}

// NewProcessor creates a Processor. A nil resolver leaves countries unset.
func NewProcessor(resolver CountryResolver) *Processor {
	return &Processor{resolver: resolver}
}

// ProcessJSON decodes an export and extracts its segments.
func (p *Processor) ProcessJSON(data []byte, opts Options) (*Result, error) {
	decoded, err := Decode(data)
	if err != nil {
		return nil, err
	}
	result := p.Process(decoded.Segments, opts)
	result.Skipped = decoded.Skipped
	return result, nil
}

// Process filters visits below the probability threshold, collects the
// years present, and emits location points for visits and trail points.
// The returned segments are enriched copies; the input is not modified.
func (p *Processor) Process(segments []Segment, opts Options) *Result {
	result := &Result{
		Segments:  make([]Segment, 0, len(segments)),
		Locations: []LocationPoint{},
	}
	years := make(map[int]struct{})

	for _, seg := range segments {
		if !seg.Start.IsZero() {
			years[seg.Start.Year()] = struct{}{}
		}

		// A visit below the threshold is dropped from Segments, but its
		// trail points are still emitted.
		keep := seg.Visit == nil || passesThreshold(seg.Visit, opts.ProbabilityThreshold)

		if seg.Visit != nil && keep {
			if coord, ok := ParseLatLng(seg.Visit.LatLng); ok {
				seg.Country = p.country(coord)
				result.Locations = append(result.Locations, LocationPoint{
					Lat:         coord.Lat,
					Lng:         coord.Lng,
					StartTime:   seg.Start,
					EndTime:     seg.End,
					Name:        seg.Visit.Name,
					Probability: seg.Visit.Probability,
					PlaceID:     seg.Visit.PlaceID,
					Country:     seg.Country,
				})
			}
		}

		for _, pp := range seg.TimelinePath {
			coord, ok := ParseLatLng(pp.Point)
			if !ok {
				continue
			}
			at, ok := pathPointTime(seg.Start, pp)
			if !ok {
				continue
			}
			result.Locations = append(result.Locations, LocationPoint{
				Lat:       coord.Lat,
				Lng:       coord.Lng,
				StartTime: at,
				EndTime:   at,
				Country:   p.country(coord),
			})
		}

		if keep {
			result.Segments = append(result.Segments, seg)
		}
	}

	result.Years = make([]int, 0, len(years))
	for y := range years {
		result.Years = append(result.Years, y)
	}
	sort.Ints(result.Years)

	return result
}

func (p *Processor) country(c Coordinate) string {
	if p.resolver == nil {
		return ""
	}
	name, _ := p.resolver.Country(c.Lat, c.Lng)
	return name
}

// passesThreshold reports whether a visit is kept. Visits without a
// probability are always kept.
func passesThreshold(v *Visit, threshold float64) bool {
	if threshold == 0 {
		return true
	}
	if v.probabilityInvalid {
		return false
	}
	if v.Probability == nil {
		return true
	}
	return *v.Probability >= threshold
}

// pathPointTime prefers the point's own timestamp and otherwise offsets
// from the segment start.
func pathPointTime(start time.Time, pp PathPoint) (time.Time, bool) {
	if !pp.Time.IsZero() {
		return pp.Time, true
	}
	if start.IsZero() {
		return time.Time{}, false
	}
	return start.Add(time.Duration(pp.OffsetMinutes * float64(time.Minute))), true
}
