package domain

// MaxSections is the largest section count a canopy may declare.
const MaxSections = 20

// defaultPlenumLengthMM is the plenum length preset on new supply sections.
const defaultPlenumLengthMM = 1000

// Marvel holds the demand-control settings of a section.
type Marvel struct {
	MinPercent  float64 `json:"min_percent"`
	IdlePercent float64 `json:"idle_percent"`
	DesignM3s   float64 `json:"design_m3s"`
}

// PlenumSupply is the supply air measurement of a K-factor section.
type PlenumSupply struct {
	PlenumLengthMM int
	TabReading     *Reading
}

// KSASection is one section of a section-based canopy.
type KSASection struct {
	ExtractKSA        int
	ExtractTabReading *Reading
	Supply            *PlenumSupply
	Marvel            *Marvel
}

// AnemometerSection is one grill or slot section of an anemometer canopy.
type AnemometerSection struct {
	Reading       *Reading
	SupplyReading *Reading
	Marvel        *Marvel
}

// LengthUnit is the single implicit measurement unit of a length-based canopy.
type LengthUnit struct {
	LengthMM          int
	ExtractTabReading *Reading
	Supply            *PlenumSupply
}

// Shape is a canopy's measurement data restricted to the fields its
// classification uses. Implementations are KSAShape, LengthShape,
// AnemometerShape and UnknownShape.
type Shape interface {
	shape()
}

type KSAShape struct{ Sections []KSASection }
type LengthShape struct{ Unit LengthUnit }
type AnemometerShape struct{ Sections []AnemometerSection }

// UnknownShape is returned for canopies whose model is not in the registry.
type UnknownShape struct{ Sections int }

func (KSAShape) shape()        {}
func (LengthShape) shape()     {}
func (AnemometerShape) shape() {}
func (UnknownShape) shape()    {}

// ShapeSections builds a fresh, classification-specific view of a canopy's
// measurements. Fields foreign to the classification are never carried, and
// Marvel settings are present iff the canopy has Marvel enabled. The input is
// not modified.
func ShapeSections(desc ModelDescriptor, c CanopyRecord) Shape {
	records := c.Sections
	if len(records) > MaxSections {
		records = records[:MaxSections]
	}

	switch desc.Classification {
	case SectionBased:
		out := make([]KSASection, 0, len(records))
		for _, r := range records {
			s := KSASection{
				ExtractKSA:        derefInt(r.ExtractKSA),
				ExtractTabReading: r.ExtractTabReading,
				Marvel:            shapeMarvel(c.WithMarvel, r),
			}
			if desc.SuppliesAir {
				s.Supply = &PlenumSupply{PlenumLengthMM: derefInt(r.SupplyPlenumLength), TabReading: r.SupplyTabReading}
			}
			out = append(out, s)
		}
		return KSAShape{Sections: out}

	case LengthBased:
		u := LengthUnit{LengthMM: derefInt(c.CanopyLengthMM), ExtractTabReading: c.ExtractTabReading}
		if desc.SuppliesAir {
			u.Supply = &PlenumSupply{PlenumLengthMM: derefInt(c.SupplyPlenumLength), TabReading: c.SupplyTabReading}
		}
		return LengthShape{Unit: u}

	case GrillAnemometer, SlotAnemometerSupplyExtract, SlotAnemometerExtractOnly:
		out := make([]AnemometerSection, 0, len(records))
		for _, r := range records {
			s := AnemometerSection{Reading: r.AnemometerReading, Marvel: shapeMarvel(c.WithMarvel, r)}
			if desc.Classification == SlotAnemometerSupplyExtract {
				s.SupplyReading = r.SupplyAnemometerReading
			}
			out = append(out, s)
		}
		return AnemometerShape{Sections: out}
	}

	return UnknownShape{Sections: len(records)}
}

// ResizeSections returns n canonical section records for a canopy, as the form
// layer needs whenever the section count, model or Marvel toggle changes.
// Existing values that are valid for the classification are kept, foreign
// fields are dropped and new sections get form defaults. Length-based models
// have no section records. The canopy is not modified.
func ResizeSections(desc ModelDescriptor, c CanopyRecord, n int) []SectionRecord {
	if desc.Classification == LengthBased || n <= 0 {
		return nil
	}
	if n > MaxSections {
		n = MaxSections
	}

	out := make([]SectionRecord, n)
	for i := range out {
		var prev SectionRecord
		existing := i < len(c.Sections)
		if existing {
			prev = c.Sections[i]
		}

		var r SectionRecord
		switch {
		case desc.Classification == SectionBased:
			r.ExtractKSA = copyInt(prev.ExtractKSA)
			r.ExtractTabReading = copyReading(prev.ExtractTabReading)
			if r.ExtractTabReading == nil {
				r.ExtractTabReading = ReadingOf("")
			}
			if desc.SuppliesAir {
				r.SupplyPlenumLength = copyInt(prev.SupplyPlenumLength)
				if r.SupplyPlenumLength == nil {
					l := defaultPlenumLengthMM
					r.SupplyPlenumLength = &l
				}
				r.SupplyTabReading = copyReading(prev.SupplyTabReading)
				if r.SupplyTabReading == nil {
					r.SupplyTabReading = ReadingOf("")
				}
			}
		case desc.Classification.UsesAnemometer():
			r.AnemometerReading = copyReading(prev.AnemometerReading)
			if desc.Classification == SlotAnemometerSupplyExtract {
				r.SupplyAnemometerReading = copyReading(prev.SupplyAnemometerReading)
			}
		}

		if c.WithMarvel {
			r.MinPercent = copyFloatOr(prev.MinPercent, 0)
			r.IdlePercent = copyFloatOr(prev.IdlePercent, 0)
			r.DesignM3s = copyFloatOr(prev.DesignM3s, 0)
		}
		out[i] = r
	}
	return out
}

func shapeMarvel(enabled bool, r SectionRecord) *Marvel {
	if !enabled {
		return nil
	}
	return &Marvel{
		MinPercent:  derefFloat(r.MinPercent),
		IdlePercent: derefFloat(r.IdlePercent),
		DesignM3s:   derefFloat(r.DesignM3s),
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyReading(p *Reading) *Reading {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyFloatOr(p *float64, def float64) *float64 {
	v := def
	if p != nil {
		v = *p
	}
	return &v
}
