// Package skygeo provides sky coordinate parsing, formatting and angular
// separation. All public functions are pure and operate in decimal degrees.
package skygeo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vast-survey/triage/internal/errors"
)

// Position is a sky position in decimal degrees (ICRS).
type Position struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// DegPerHour converts right ascension hours to degrees.
const DegPerHour = 15.0

// ParseRA parses a sexagesimal right ascension string "HH:MM:SS(.ss)" in hours
// and returns decimal degrees. Hours must be in [0, 24).
func ParseRA(s string) (float64, error) {
	sign, fields, err := splitSexagesimal(s, "RA")
	if err != nil {
		return 0, err
	}
	if sign < 0 {
		return 0, invalidCoordinate("RA", s, "right ascension cannot be negative")
	}

	hours := fields[0] + fields[1]/60 + fields[2]/3600
	if hours >= 24 {
		return 0, invalidCoordinate("RA", s, "hours must be in [0, 24)")
	}
	return hours * DegPerHour, nil
}

// ParseDec parses a sexagesimal declination string "±DD:MM:SS(.ss)" in degrees
// and returns decimal degrees. The result must be in [-90, 90].
func ParseDec(s string) (float64, error) {
	sign, fields, err := splitSexagesimal(s, "Dec")
	if err != nil {
		return 0, err
	}

	deg := sign * (fields[0] + fields[1]/60 + fields[2]/3600)
	if deg < -90 || deg > 90 {
		return 0, invalidCoordinate("Dec", s, "degrees must be in [-90, 90]")
	}
	return deg, nil
}

// FormatRA formats decimal degrees as a sexagesimal hour string "HH:MM:SS.SS".
func FormatRA(deg float64) string {
	// normalize into [0, 360)
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	hours := deg / DegPerHour
	h := int(hours)
	m := int((hours - float64(h)) * 60)
	sec := (hours - float64(h) - float64(m)/60) * 3600
	h, m, sec = carrySeconds(h, m, sec)
	if h >= 24 {
		h -= 24
	}
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, sec)
}

// FormatDec formats decimal degrees as a sexagesimal degree string "±DD:MM:SS.S".
func FormatDec(deg float64) string {
	sign := "+"
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	d := int(deg)
	m := int((deg - float64(d)) * 60)
	sec := (deg - float64(d) - float64(m)/60) * 3600
	d, m, sec = carrySeconds(d, m, sec)
	return fmt.Sprintf("%s%02d:%02d:%04.1f", sign, d, m, sec)
}

// AngularSeparation returns the great-circle distance between two positions in
// degrees. It is symmetric and zero (to floating point tolerance) for equal
// positions. Uses the Vincenty formula for numerical stability at small and
// antipodal separations.
func AngularSeparation(a, b Position) float64 {
	ra1 := a.RA * math.Pi / 180
	dec1 := a.Dec * math.Pi / 180
	ra2 := b.RA * math.Pi / 180
	dec2 := b.Dec * math.Pi / 180

	dRA := ra2 - ra1
	sinDec1, cosDec1 := math.Sincos(dec1)
	sinDec2, cosDec2 := math.Sincos(dec2)
	sinDRA, cosDRA := math.Sincos(dRA)

	num := math.Hypot(cosDec2*sinDRA, cosDec1*sinDec2-sinDec1*cosDec2*cosDRA)
	den := sinDec1*sinDec2 + cosDec1*cosDec2*cosDRA

	return math.Atan2(num, den) * 180 / math.Pi
}

// SeparationArcmin returns the great-circle distance in arcminutes. All
// separation values exposed by this service are reported in arcminutes.
func SeparationArcmin(a, b Position) float64 {
	return AngularSeparation(a, b) * 60
}

// splitSexagesimal splits "±A:B:C(.cc)" into a sign and three numeric fields.
// The middle and last fields must be in [0, 60).
func splitSexagesimal(s, kind string) (sign float64, fields [3]float64, err error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fields, invalidCoordinate(kind, s, "empty coordinate string")
	}

	sign = 1
	switch trimmed[0] {
	case '+':
		trimmed = trimmed[1:]
	case '-':
		sign = -1
		trimmed = trimmed[1:]
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) != 3 {
		return 0, fields, invalidCoordinate(kind, s, "expected three colon-separated fields")
	}

	for i, part := range parts {
		v, convErr := strconv.ParseFloat(part, 64)
		if convErr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fields, invalidCoordinate(kind, s, fmt.Sprintf("field %q is not a number", part))
		}
		if v < 0 {
			return 0, fields, invalidCoordinate(kind, s, "fields must be non-negative")
		}
		if i > 0 && v >= 60 {
			return 0, fields, invalidCoordinate(kind, s, "minutes and seconds must be in [0, 60)")
		}
		fields[i] = v
	}
	return sign, fields, nil
}

func carrySeconds(major, minute int, sec float64) (int, int, float64) {
	// rounding in Sprintf can push seconds to 60.00
	if sec >= 59.995 {
		sec = 0
		minute++
		if minute >= 60 {
			minute = 0
			major++
		}
	}
	return major, minute, sec
}

func invalidCoordinate(kind, input, reason string) error {
	return errors.Newf("invalid %s coordinate %q: %s", kind, input, reason).
		Category(errors.CategoryCoordinate).
		Component("skygeo").
		Context("input", input).
		Build()
}
