package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownModel is returned when a model code is not in the registry.
var ErrUnknownModel = errors.New("unknown canopy model")

// Classification is the measurement regime of a canopy model.
type Classification int

const (
	Unclassified Classification = iota
	SectionBased
	LengthBased
	GrillAnemometer
	SlotAnemometerSupplyExtract
	SlotAnemometerExtractOnly
)

var classificationNames = map[Classification]string{
	Unclassified:                "unclassified",
	SectionBased:                "section_based",
	LengthBased:                 "length_based",
	GrillAnemometer:             "grill_anemometer",
	SlotAnemometerSupplyExtract: "slot_anemometer_supply_extract",
	SlotAnemometerExtractOnly:   "slot_anemometer_extract_only",
}

func (c Classification) String() string {
	if s, ok := classificationNames[c]; ok {
		return s
	}
	return fmt.Sprintf("classification(%d)", int(c))
}

// MarshalText renders the classification as its snake_case name.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a snake_case classification name.
func (c *Classification) UnmarshalText(text []byte) error {
	for k, name := range classificationNames {
		if name == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", text)
}

// EncodeMsgpack writes the classification as a msgpack string, matching its
// JSON form.
func (c Classification) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(c.String())
}

// DecodeMsgpack reads a classification written by EncodeMsgpack.
func (c *Classification) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return c.UnmarshalText([]byte(name))
}

// UsesKFactor reports whether flows are computed with the orifice law.
func (c Classification) UsesKFactor() bool {
	return c == SectionBased || c == LengthBased
}

// UsesAnemometer reports whether flows are computed with the velocity law.
func (c Classification) UsesAnemometer() bool {
	return c == GrillAnemometer || c == SlotAnemometerSupplyExtract || c == SlotAnemometerExtractOnly
}

// Coefficients is the classification-specific coefficient data of a model.
// Implementations are KSATable, LengthTable and FreeAreaFormula.
type Coefficients interface {
	coefficients()
}

// KSATable maps a KSA count to its K-factor.
type KSATable map[int]float64

// LengthTable maps a canopy or plenum length in mm to its K-factor.
type LengthTable map[int]float64

// FreeAreaFormula marks models measured with an anemometer: Qv = A × m/s.
type FreeAreaFormula struct{}

func (KSATable) coefficients()        {}
func (LengthTable) coefficients()     {}
func (FreeAreaFormula) coefficients() {}

// ModelDescriptor is the static description of one canopy model.
type ModelDescriptor struct {
	Code           string
	Family         string
	Classification Classification
	Coefficients   Coefficients

	// Capability flags, derived once at registry construction.
	SuppliesAir bool
	UV          bool
	CMW         bool
}

// Keys returns the ascending lookup keys of the model's table, or nil for
// anemometer models.
func (d ModelDescriptor) Keys() []int {
	var table map[int]float64
	switch c := d.Coefficients.(type) {
	case KSATable:
		table = c
	case LengthTable:
		table = c
	default:
		return nil
	}
	keys := make([]int, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Registry holds the descriptors of every supported model. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	order  []string
	models map[string]ModelDescriptor
}

// NewRegistry builds a registry from descriptors, deriving capability flags
// from each code. Duplicate codes keep the first descriptor.
func NewRegistry(descriptors ...ModelDescriptor) *Registry {
	r := &Registry{models: make(map[string]ModelDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, ok := r.models[d.Code]; ok {
			continue
		}
		d.SuppliesAir = strings.Contains(d.Code, "F") && d.Classification != SlotAnemometerExtractOnly
		d.UV = uvModels[d.Code]
		d.CMW = cmwModels[d.Code]
		r.models[d.Code] = d
		r.order = append(r.order, d.Code)
	}
	return r
}

// Lookup returns the descriptor for a model code.
func (r *Registry) Lookup(code string) (ModelDescriptor, bool) {
	d, ok := r.models[code]
	return d, ok
}

// Models returns every descriptor in registry order.
func (r *Registry) Models() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.models[code])
	}
	return out
}

// Classify returns the classification of a model code.
func (r *Registry) Classify(code string) (Classification, error) {
	d, ok := r.models[code]
	if !ok {
		return Unclassified, fmt.Errorf("%w: %q", ErrUnknownModel, code)
	}
	return d.Classification, nil
}

// KFactor returns the K-factor for a KSA count (section-based models) or a
// length in mm (length-based models). Length lookups fall back to the nearest
// table length; on an exact tie the lower length wins. Anemometer models,
// unknown codes, absent KSA counts and non-positive inputs return 0.
func (r *Registry) KFactor(code string, ksaOrLength int) float64 {
	d, ok := r.models[code]
	if !ok || ksaOrLength <= 0 {
		return 0
	}
	switch table := d.Coefficients.(type) {
	case KSATable:
		return table[ksaOrLength]
	case LengthTable:
		return nearestLength(table, ksaOrLength)
	default:
		return 0
	}
}

// AvailableKSAs returns the valid selections for a model: KSA counts for
// section-based models, lengths for length-based models.
func (r *Registry) AvailableKSAs(code string) []int {
	d, ok := r.models[code]
	if !ok {
		return nil
	}
	return d.Keys()
}

func nearestLength(table LengthTable, length int) float64 {
	if k, ok := table[length]; ok {
		return k
	}
	best, bestDiff := 0, -1
	for l := range table {
		diff := l - length
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff || (diff == bestDiff && l < best) {
			best, bestDiff = l, diff
		}
	}
	if bestDiff < 0 {
		return 0
	}
	return table[best]
}
