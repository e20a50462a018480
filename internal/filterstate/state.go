package filterstate

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/vast-survey/triage/internal/datastore"
)

// RangeValue is an inclusive (gte, lte) bound pair. A nil side is unbounded.
type RangeValue struct {
	Gte *float64
	Lte *float64
}

// CoordFilter is one coordinate-radius facet value. It is active only when
// both coordinate strings are present and the radius is positive; anything
// less deactivates the facet entirely (radius 0 is "unset", never a
// zero-radius search).
type CoordFilter struct {
	RAStr        string
	DecStr       string
	RadiusArcmin float64
}

// Active reports whether the facet participates in filtering.
func (c CoordFilter) Active() bool {
	return c.RAStr != "" && c.DecStr != "" && c.RadiusArcmin > 0
}

// FilterState is a snapshot of every facet's value. Zero values mean "unset";
// range facets at the aggregate bounds are equivalent to unset. Treat values
// as immutable: Merge returns a fresh state instead of mutating.
type FilterState struct {
	Ranges map[string]RangeValue // keyed by statistic facet name

	Rated       *bool
	TagID       string
	Confidence  string
	Observation string
	BeamIndex   *int
	DeepNum     *int

	Coords map[string]CoordFilter // keyed by coordinate facet name
}

// Clone returns a deep copy.
func (s FilterState) Clone() FilterState {
	out := s
	out.Ranges = make(map[string]RangeValue, len(s.Ranges))
	for k, v := range s.Ranges {
		out.Ranges[k] = v
	}
	out.Coords = make(map[string]CoordFilter, len(s.Coords))
	for k, v := range s.Coords {
		out.Coords[k] = v
	}
	if s.Rated != nil {
		v := *s.Rated
		out.Rated = &v
	}
	if s.BeamIndex != nil {
		v := *s.BeamIndex
		out.BeamIndex = &v
	}
	if s.DeepNum != nil {
		v := *s.DeepNum
		out.DeepNum = &v
	}
	return out
}

// DefaultState derives the no-filter state from current aggregate bounds:
// every range facet spans its live (min, max), everything else is unset.
// "Bounds equal to the full data range" and "no filter" are the same state.
func DefaultState(bounds datastore.BoundsSet) FilterState {
	s := FilterState{
		Ranges: make(map[string]RangeValue, len(StatFacets)),
		Coords: make(map[string]CoordFilter, len(CoordFacets)),
	}
	for _, name := range StatFacets {
		b := bounds[name]
		s.Ranges[name] = RangeValue{Gte: b.Min, Lte: b.Max}
	}
	for _, name := range CoordFacets {
		s.Coords[name] = CoordFilter{}
	}
	return s
}

// Diff returns the raw parameter map holding only the facets of s that
// differ from base and are themselves set. It is the minimal shareable
// representation: Diff(base, base) is empty, and a range side equal to the
// live aggregate bound is not an active filter.
func Diff(base, s FilterState) map[string]string {
	diff := make(map[string]string)

	for _, name := range StatFacets {
		bv := base.Ranges[name]
		sv := s.Ranges[name]
		if sv.Gte != nil && !floatPtrEqual(sv.Gte, bv.Gte) {
			diff[name+"__gte"] = formatFloat(*sv.Gte)
		}
		if sv.Lte != nil && !floatPtrEqual(sv.Lte, bv.Lte) {
			diff[name+"__lte"] = formatFloat(*sv.Lte)
		}
	}

	if s.Rated != nil && (base.Rated == nil || *base.Rated != *s.Rated) {
		diff["rated"] = strconv.FormatBool(*s.Rated)
	}
	if s.TagID != "" && s.TagID != base.TagID {
		diff["tag"] = s.TagID
	}
	if s.Confidence != "" && s.Confidence != base.Confidence {
		diff["confidence"] = s.Confidence
	}
	if s.Observation != "" && s.Observation != base.Observation {
		diff["observation"] = s.Observation
	}
	if s.BeamIndex != nil && (base.BeamIndex == nil || *base.BeamIndex != *s.BeamIndex) {
		diff["beam_index"] = strconv.Itoa(*s.BeamIndex)
	}
	if s.DeepNum != nil && (base.DeepNum == nil || *base.DeepNum != *s.DeepNum) {
		diff["deep_num"] = strconv.Itoa(*s.DeepNum)
	}

	for _, name := range CoordFacets {
		cv := s.Coords[name]
		if cv.Active() && cv != base.Coords[name] {
			diff[name+"_ra_str"] = cv.RAStr
			diff[name+"_dec_str"] = cv.DecStr
			diff[name+"_arcmin_search_radius"] = formatFloat(cv.RadiusArcmin)
		}
	}

	return diff
}

// Merge overlays raw parameters onto base and returns the combined state.
// Unknown keys are ignored; a known key with an unparsable value resets its
// facet to unset rather than keeping the base value, so a broken parameter
// can never silently reapply an old filter. Incomplete coordinate triples
// normalize to unset so that Merge(base, Diff(base, s)) round-trips.
func Merge(base FilterState, params map[string]string) FilterState {
	s := base.Clone()

	for _, name := range StatFacets {
		rv := s.Ranges[name]
		if raw, ok := params[name+"__gte"]; ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rv.Gte = &v
			} else {
				rv.Gte = nil
			}
		}
		if raw, ok := params[name+"__lte"]; ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rv.Lte = &v
			} else {
				rv.Lte = nil
			}
		}
		s.Ranges[name] = rv
	}

	if raw, ok := params["rated"]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			s.Rated = &v
		} else {
			s.Rated = nil
		}
	}
	if raw, ok := params["tag"]; ok {
		s.TagID = raw
	}
	if raw, ok := params["confidence"]; ok {
		switch raw {
		case datastore.ConfidenceTrue, datastore.ConfidenceFalse, datastore.ConfidenceUnsure:
			s.Confidence = raw
		default:
			s.Confidence = ""
		}
	}
	if raw, ok := params["observation"]; ok {
		s.Observation = raw
	}
	if raw, ok := params["beam_index"]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			s.BeamIndex = &v
		} else {
			s.BeamIndex = nil
		}
	}
	if raw, ok := params["deep_num"]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			s.DeepNum = &v
		} else {
			s.DeepNum = nil
		}
	}

	for _, name := range CoordFacets {
		cv := s.Coords[name]
		if raw, ok := params[name+"_ra_str"]; ok {
			cv.RAStr = raw
		}
		if raw, ok := params[name+"_dec_str"]; ok {
			cv.DecStr = raw
		}
		if raw, ok := params[name+"_arcmin_search_radius"]; ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				cv.RadiusArcmin = v
			} else {
				cv.RadiusArcmin = 0
			}
		}
		if !cv.Active() {
			cv = CoordFilter{}
		}
		s.Coords[name] = cv
	}

	return s
}

// ActiveFacets lists the catalog names of facets that differ from base, for
// UI highlighting. Range sides and coordinate triple members collapse to
// their facet name. Purely informational.
func ActiveFacets(base, s FilterState) []string {
	diff := Diff(base, s)
	seen := make(map[string]bool)
	var active []string

	mark := func(name string) {
		if !seen[name] {
			seen[name] = true
			active = append(active, name)
		}
	}

	for key := range diff {
		name := key
		switch {
		case strings.HasSuffix(key, "__gte"):
			name = strings.TrimSuffix(key, "__gte")
		case strings.HasSuffix(key, "__lte"):
			name = strings.TrimSuffix(key, "__lte")
		}
		for _, coord := range CoordFacets {
			if key == coord+"_ra_str" || key == coord+"_dec_str" || key == coord+"_arcmin_search_radius" {
				name = coord + "_coord"
			}
		}
		mark(name)
	}

	sort.Strings(active)
	return active
}

// DecodeValues flattens URL query values into the raw parameter map Merge
// consumes, keeping the first value of any repeated key and dropping keys
// the catalog does not recognize.
func DecodeValues(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for key := range values {
		if !knownParam(key) {
			continue
		}
		params[key] = values.Get(key)
	}
	return params
}

// EncodeValues renders a diff as URL query values for a canonical shareable
// link.
func EncodeValues(diff map[string]string) url.Values {
	values := make(url.Values, len(diff))
	for key, value := range diff {
		values.Set(key, value)
	}
	return values
}

var paramKeys = buildParamKeys()

func buildParamKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, name := range StatFacets {
		keys[name+"__gte"] = true
		keys[name+"__lte"] = true
	}
	for _, name := range []string{"rated", "tag", "confidence", "observation", "beam_index", "deep_num"} {
		keys[name] = true
	}
	for _, name := range CoordFacets {
		keys[name+"_ra_str"] = true
		keys[name+"_dec_str"] = true
		keys[name+"_arcmin_search_radius"] = true
	}
	return keys
}

func knownParam(key string) bool {
	return paramKeys[key]
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// formatFloat uses the shortest representation that round-trips exactly, so
// Diff output re-parses to the identical value.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
