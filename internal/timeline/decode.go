package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// ErrMalformedJSON is returned when the export is not valid JSON.
var ErrMalformedJSON = errors.New("malformed timeline json")

// Format identifies the export layout a document was decoded from.
type Format string

// Supported export layouts.
const (
	FormatUnknown          Format = "unknown"
	FormatSemanticSegments Format = "semanticSegments"
	FormatSegmentArray     Format = "segmentArray"
)

// Decoded holds the segments read from an export.
type Decoded struct {
	Format   Format
	Segments []Segment
	Skipped  int
}

// adapter converts one raw export element into a Segment.
type adapter func(raw json.RawMessage) (Segment, error)

// Decode detects the export layout and normalizes every element into a
// Segment. An unrecognized root shape yields zero segments and no error.
// Elements that fail to decode are skipped and counted.
func Decode(data []byte) (*Decoded, error) {
	if !json.Valid(data) {
		return nil, ErrMalformedJSON
	}

	out := &Decoded{Format: FormatUnknown}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return out, nil
	}

	var (
		elements []json.RawMessage
		decode   adapter
	)

	switch trimmed[0] {
	case '{':
		var root struct {
			SemanticSegments json.RawMessage `json:"semanticSegments"`
		}
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("decode root object: %w", err)
		}
		raw := bytes.TrimLeft(root.SemanticSegments, " \t\r\n")
		if len(raw) == 0 || raw[0] != '[' {
			return out, nil
		}
		if err := json.Unmarshal(raw, &elements); err != nil {
			return nil, fmt.Errorf("decode semanticSegments: %w", err)
		}
		out.Format = FormatSemanticSegments
		decode = decodeSemanticSegment
	case '[':
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("decode root array: %w", err)
		}
		out.Format = FormatSegmentArray
		decode = decodeArraySegment
	default:
		return out, nil
	}

	out.Segments = make([]Segment, 0, len(elements))
	for _, raw := range elements {
		seg, err := decode(raw)
		if err != nil {
			out.Skipped++
			continue
		}
		out.Segments = append(out.Segments, seg)
	}

	return out, nil
}

// TopLevelKeys lists the keys of a root JSON object in sorted order. It
// returns nil for any other root value.
func TopLevelKeys(data []byte) []string {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}
	keys := make([]string, 0, len(root))
	for k := range root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// semanticSegment is the element shape of {"semanticSegments": [...]} exports.
type semanticSegment struct {
	StartTime flexString `json:"startTime"`
	EndTime   flexString `json:"endTime"`
	Visit     *struct {
		Probability  flexFloat `json:"probability"`
		TopCandidate struct {
			PlaceID       flexString   `json:"placeId"`
			Name          flexString   `json:"name"`
			SemanticType  flexString   `json:"semanticType"`
			Probability   flexFloat    `json:"probability"`
			PlaceLocation flexLocation `json:"placeLocation"`
		} `json:"topCandidate"`
	} `json:"visit"`
	Activity *struct {
		DistanceMeters flexFloat    `json:"distanceMeters"`
		Probability    flexFloat    `json:"probability"`
		Start          flexLocation `json:"start"`
		End            flexLocation `json:"end"`
		TopCandidate   struct {
			Type flexString `json:"type"`
		} `json:"topCandidate"`
	} `json:"activity"`
	TimelinePath []struct {
		Point  flexString `json:"point"`
		Time   flexString `json:"time"`
		Offset flexFloat  `json:"durationMinutesOffsetFromStartTime"`
	} `json:"timelinePath"`
}

func decodeSemanticSegment(raw json.RawMessage) (Segment, error) {
	var in semanticSegment
	if err := json.Unmarshal(raw, &in); err != nil {
		return Segment{}, err
	}

	seg := newSegment(string(in.StartTime), string(in.EndTime))

	if v := in.Visit; v != nil {
		seg.Visit = &Visit{
			Probability:        v.Probability.ptr(),
			PlaceID:            string(v.TopCandidate.PlaceID),
			Name:               string(v.TopCandidate.Name),
			LatLng:             string(v.TopCandidate.PlaceLocation),
			SemanticType:       string(v.TopCandidate.SemanticType),
			probabilityInvalid: v.Probability.Present && !v.Probability.Valid,
		}
	} else if a := in.Activity; a != nil {
		seg.Activity = &Activity{
			DistanceMeters: a.DistanceMeters.orZero(),
			Type:           CanonicalActivityType(string(a.TopCandidate.Type)),
			Probability:    a.Probability.ptr(),
			Start:          string(a.Start),
			End:            string(a.End),
		}
	}

	for _, p := range in.TimelinePath {
		pp := PathPoint{Point: string(p.Point), OffsetMinutes: p.Offset.orZero()}
		if t, ok := ParseTimestamp(string(p.Time)); ok {
			pp.Time = t
		}
		seg.TimelinePath = append(seg.TimelinePath, pp)
	}

	return seg, nil
}

// arraySegment is the element shape of root-array exports, where numbers
// are string-encoded and coordinates use the geo: URI form.
type arraySegment struct {
	StartTime flexString `json:"startTime"`
	EndTime   flexString `json:"endTime"`
	Visit     *struct {
		Probability  flexFloat `json:"probability"`
		TopCandidate struct {
			PlaceID       flexString   `json:"placeID"`
			Name          flexString   `json:"name"`
			SemanticType  flexString   `json:"semanticType"`
			Probability   flexFloat    `json:"probability"`
			PlaceLocation flexLocation `json:"placeLocation"`
		} `json:"topCandidate"`
	} `json:"visit"`
	Activity *struct {
		DistanceMeters flexFloat    `json:"distanceMeters"`
		Start          flexLocation `json:"start"`
		End            flexLocation `json:"end"`
		TopCandidate   struct {
			Type        flexString `json:"type"`
			Probability flexFloat  `json:"probability"`
		} `json:"topCandidate"`
	} `json:"activity"`
	TimelinePath []struct {
		Point  flexString `json:"point"`
		Time   flexString `json:"time"`
		Offset flexFloat  `json:"durationMinutesOffsetFromStartTime"`
	} `json:"timelinePath"`
}

func decodeArraySegment(raw json.RawMessage) (Segment, error) {
	var in arraySegment
	if err := json.Unmarshal(raw, &in); err != nil {
		return Segment{}, err
	}

	seg := newSegment(string(in.StartTime), string(in.EndTime))

	if v := in.Visit; v != nil {
		seg.Visit = &Visit{
			Probability:        v.Probability.ptr(),
			PlaceID:            string(v.TopCandidate.PlaceID),
			Name:               string(v.TopCandidate.Name),
			LatLng:             string(v.TopCandidate.PlaceLocation),
			SemanticType:       string(v.TopCandidate.SemanticType),
			probabilityInvalid: v.Probability.Present && !v.Probability.Valid,
		}
	} else if a := in.Activity; a != nil {
		seg.Activity = &Activity{
			DistanceMeters: a.DistanceMeters.orZero(),
			Type:           CanonicalActivityType(string(a.TopCandidate.Type)),
			Probability:    a.TopCandidate.Probability.ptr(),
			Start:          string(a.Start),
			End:            string(a.End),
		}
	}

	for _, p := range in.TimelinePath {
		pp := PathPoint{Point: string(p.Point), OffsetMinutes: p.Offset.orZero()}
		if t, ok := ParseTimestamp(string(p.Time)); ok {
			pp.Time = t
		}
		seg.TimelinePath = append(seg.TimelinePath, pp)
	}

	return seg, nil
}

// flexLocation decodes a coordinate given either as a string or as an
// object with a latLng field. Anything else decodes to "".
type flexLocation string

func (l *flexLocation) UnmarshalJSON(data []byte) error {
	*l = ""
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s flexString
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*l = flexLocation(s)
	case '{':
		var obj struct {
			LatLng flexString `json:"latLng"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		*l = flexLocation(obj.LatLng)
	}
	return nil
}

func newSegment(start, end string) Segment {
	seg := Segment{StartTime: start, EndTime: end}
	if t, ok := ParseTimestamp(start); ok {
		seg.Start = t
	}
	if t, ok := ParseTimestamp(end); ok {
		seg.End = t
	}
	return seg
}
