package timeline

import "sort"

// UnknownPlaceKey buckets visits that have no place id.
const UnknownPlaceKey = "unknown"

// UnknownPlaceName is the display name of a visit without one.
const UnknownPlaceName = "Unknown Place"

// TransportAggregate tallies one activity type.
type TransportAggregate struct {
	Count          int     `json:"count"`
	DistanceMeters float64 `json:"distanceMeters"`
	DurationMs     int64   `json:"durationMs"`
}

// VisitAggregate tallies visits to one place. Name, LatLng and Country
// hold the most recently seen values.
type VisitAggregate struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	LatLng  string `json:"latLng"`
	Country string `json:"country,omitempty"`
}

// Stats summarizes a segment list.
type Stats struct {
	TotalDistanceMeters float64                        `json:"totalDistanceMeters"`
	TotalVisits         int                            `json:"totalVisits"`
	Countries           []string                       `json:"countries"`
	Transport           map[string]*TransportAggregate `json:"transport"`
	Visits              map[string]*VisitAggregate     `json:"visits"`
}

// CalculateStats aggregates distance, visits, transport modes and countries
// over segments. Countries resolved during extraction are reused; otherwise
// the resolver is consulted with the visit coordinate. The resolver may be nil.
func CalculateStats(segments []Segment, resolver CountryResolver) *Stats {
	stats := &Stats{
		Transport: make(map[string]*TransportAggregate),
		Visits:    make(map[string]*VisitAggregate),
	}
	countries := make(map[string]struct{})

	for _, seg := range segments {
		switch {
		case seg.Activity != nil:
			act := seg.Activity
			stats.TotalDistanceMeters += act.DistanceMeters

			kind := CanonicalActivityType(act.Type)
			agg, ok := stats.Transport[kind]
			if !ok {
				agg = &TransportAggregate{}
				stats.Transport[kind] = agg
			}
			agg.Count++
			agg.DistanceMeters += act.DistanceMeters
			if d, ok := seg.Duration(); ok {
				agg.DurationMs += d.Milliseconds()
			}

		case seg.Visit != nil:
			visit := seg.Visit
			stats.TotalVisits++

			name := visit.Name
			if name == "" {
				name = UnknownPlaceName
			}

			country := seg.Country
			if country == "" && resolver != nil {
				if coord, ok := ParseLatLng(visit.LatLng); ok {
					country, _ = resolver.Country(coord.Lat, coord.Lng)
				}
			}
			if country != "" {
				countries[country] = struct{}{}
			}

			key := visit.PlaceID
			if key == "" {
				key = UnknownPlaceKey
			}
			agg, ok := stats.Visits[key]
			if !ok {
				agg = &VisitAggregate{}
				stats.Visits[key] = agg
			}
			agg.Count++
			agg.Name = name
			agg.LatLng = visit.LatLng
			agg.Country = country
		}
	}

	stats.Countries = make([]string, 0, len(countries))
	for c := range countries {
		stats.Countries = append(stats.Countries, c)
	}
	sort.Strings(stats.Countries)

	return stats
}

// TopPlaces returns up to n visit aggregates ordered by count, then name.
// A negative n returns all of them.
func (s *Stats) TopPlaces(n int) []PlaceCount {
	places := make([]PlaceCount, 0, len(s.Visits))
	for id, agg := range s.Visits {
		places = append(places, PlaceCount{PlaceID: id, VisitAggregate: *agg})
	}
	sort.Slice(places, func(i, j int) bool {
		if places[i].Count != places[j].Count {
			return places[i].Count > places[j].Count
		}
		if places[i].Name != places[j].Name {
			return places[i].Name < places[j].Name
		}
		return places[i].PlaceID < places[j].PlaceID
	})
	if n >= 0 && len(places) > n {
		places = places[:n]
	}
	return places
}

// PlaceCount is a visit aggregate paired with its place id.
type PlaceCount struct {
	PlaceID string `json:"placeId"`
	VisitAggregate
}
