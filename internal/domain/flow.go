package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultFreeAreaFraction is the open fraction of a grill or slot face.
const DefaultFreeAreaFraction = 0.75

var (
	// ErrMissingReading is returned when no reading was entered.
	ErrMissingReading = errors.New("missing reading")
	// ErrUnparsableReading is returned for non-numeric or negative readings.
	ErrUnparsableReading = errors.New("unparsable reading")
	// ErrUnparsableGeometry is returned for malformed grill or slot dimensions.
	ErrUnparsableGeometry = errors.New("unparsable geometry")
)

// Flow is a volumetric flowrate in both reporting units.
type Flow struct {
	M3h float64
	M3s float64
}

// Add returns the sum of two flows.
func (f Flow) Add(o Flow) Flow {
	return Flow{M3h: f.M3h + o.M3h, M3s: f.M3s + o.M3s}
}

// OrificeFlow applies the K-factor law Qv = Kf × √Pa. A zero K-factor yields
// zero flow without error; a missing or unparsable pressure yields zero flow
// and the reading error.
func OrificeFlow(kFactor float64, pressure *Reading) (Flow, error) {
	pa, err := pressure.Value()
	if err != nil {
		return Flow{}, err
	}
	if kFactor <= 0 {
		return Flow{}, nil
	}
	m3h := kFactor * math.Sqrt(pa)
	return Flow{M3h: m3h, M3s: m3h / 3600}, nil
}

// VelocityFlow applies the velocity law Qv = A × m/s.
func VelocityFlow(freeAreaM2 float64, velocity *Reading) (Flow, error) {
	v, err := velocity.Value()
	if err != nil {
		return Flow{}, err
	}
	if freeAreaM2 <= 0 {
		return Flow{}, nil
	}
	m3s := freeAreaM2 * v
	return Flow{M3h: m3s * 3600, M3s: m3s}, nil
}

// FreeAreaFromGrill computes the free area of a grill from a "WxH" size in mm,
// e.g. "600x600" or "600 x 600mm". Parsing is case-insensitive.
func FreeAreaFromGrill(size string, fraction float64) (float64, error) {
	s := strings.ToLower(size)
	s = strings.ReplaceAll(s, "mm", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty grill size", ErrUnparsableGeometry)
	}
	dims := strings.Split(s, "x")
	if len(dims) != 2 {
		return 0, fmt.Errorf("%w: grill size %q", ErrUnparsableGeometry, size)
	}
	w, errW := strconv.ParseFloat(dims[0], 64)
	h, errH := strconv.ParseFloat(dims[1], 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 || isNonFinite(w) || isNonFinite(h) {
		return 0, fmt.Errorf("%w: grill size %q", ErrUnparsableGeometry, size)
	}
	return (w / 1000) * (h / 1000) * fraction, nil
}

// FreeAreaFromSlot computes the free area of a slot from its length and width in mm.
func FreeAreaFromSlot(lengthMM, widthMM, fraction float64) (float64, error) {
	if lengthMM <= 0 || widthMM <= 0 || isNonFinite(lengthMM) || isNonFinite(widthMM) {
		return 0, fmt.Errorf("%w: slot %gx%g", ErrUnparsableGeometry, lengthMM, widthMM)
	}
	return (lengthMM / 1000) * (widthMM / 1000) * fraction, nil
}

// round rounds half away from zero to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
