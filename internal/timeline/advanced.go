package timeline

// EmissionFactors maps a canonical activity type to grams of CO2 per km.
// Types missing from the table emit nothing.
type EmissionFactors map[string]float64

// DefaultEmissionFactors returns the per-mode factors used for eco estimates.
func DefaultEmissionFactors() EmissionFactors {
	return EmissionFactors{
		"IN_PASSENGER_VEHICLE": 150,
		"IN_VEHICLE":           150,
		"IN_TAXI":              150,
		"IN_CAR":               150,
		"FLYING":               115,
		"IN_BUS":               80,
		"IN_TRAIN":             40,
		"IN_SUBWAY":            40,
		"WALKING":              0,
		"RUNNING":              0,
		"CYCLING":              0,
		"MOTORCYCLING":         100,
	}
}

// Factor returns the grams per km for a type, 0 when unknown.
func (f EmissionFactors) Factor(activityType string) float64 {
	return f[CanonicalActivityType(activityType)]
}

var (
	driveTypes = map[string]bool{"IN_PASSENGER_VEHICLE": true, "IN_VEHICLE": true}
	walkTypes  = map[string]bool{"WALKING": true, "RUNNING": true}
)

// EcoStats estimates emissions per activity type.
type EcoStats struct {
	TotalCO2       float64            `json:"totalCo2"`
	Breakdown      map[string]float64 `json:"breakdown"`
	DistanceByType map[string]float64 `json:"distanceByType"`
}

// TimeStats splits time in milliseconds between moving and stationary.
type TimeStats struct {
	Moving     int64 `json:"moving"`
	Stationary int64 `json:"stationary"`
	Total      int64 `json:"total"`
}

// Records holds single-segment maxima in meters.
type Records struct {
	LongestDrive float64 `json:"longestDrive"`
	LongestWalk  float64 `json:"longestWalk"`
	MaxVelocity  float64 `json:"maxVelocity"`
}

// AdvancedStats bundles eco, time and record metrics.
type AdvancedStats struct {
	Eco     EcoStats  `json:"eco"`
	Time    TimeStats `json:"time"`
	Records Records   `json:"records"`
}

// CalculateAdvancedStats computes emissions, the moving/stationary time
// split and distance records. A nil factor table uses DefaultEmissionFactors.
// Segments whose timestamps did not both parse add no time.
func CalculateAdvancedStats(segments []Segment, factors EmissionFactors) *AdvancedStats {
	if factors == nil {
		factors = DefaultEmissionFactors()
	}

	stats := &AdvancedStats{
		Eco: EcoStats{
			Breakdown:      make(map[string]float64),
			DistanceByType: make(map[string]float64),
		},
	}

	for _, seg := range segments {
		var ms int64
		if d, ok := seg.Duration(); ok {
			ms = d.Milliseconds()
		}
		stats.Time.Total += ms

		switch {
		case seg.Activity != nil:
			stats.Time.Moving += ms

			kind := CanonicalActivityType(seg.Activity.Type)
			meters := seg.Activity.DistanceMeters
			km := meters / 1000

			co2 := km * factors.Factor(kind)
			stats.Eco.DistanceByType[kind] += km
			stats.Eco.Breakdown[kind] += co2
			stats.Eco.TotalCO2 += co2

			if driveTypes[kind] && meters > stats.Records.LongestDrive {
				stats.Records.LongestDrive = meters
			}
			if walkTypes[kind] && meters > stats.Records.LongestWalk {
				stats.Records.LongestWalk = meters
			}

		case seg.Visit != nil:
			stats.Time.Stationary += ms
		}
	}

	return stats
}
