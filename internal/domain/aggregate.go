package domain

import "gonum.org/v1/gonum/floats"

// SectionFlow is the computed flow of one section (or length-based unit).
type SectionFlow struct {
	Extract Flow
	Supply  Flow
}

// CanopyTotals is the roll-up of a canopy's section flows against its design.
type CanopyTotals struct {
	DesignM3s       float64
	SupplyDesignM3s float64
	SuppliesAir     bool

	ExtractM3s     float64
	SupplyM3s      float64
	ExtractPercent float64
	SupplyPercent  float64
}

// ProjectTotals is the grand total across all canopies of a project.
type ProjectTotals struct {
	ExtractDesignM3s float64 `json:"extract_design_m3s"`
	ExtractActualM3s float64 `json:"extract_actual_m3s"`
	ExtractPercent   float64 `json:"extract_percent"`
	SupplyDesignM3s  float64 `json:"supply_design_m3s"`
	SupplyActualM3s  float64 `json:"supply_actual_m3s"`
	SupplyPercent    float64 `json:"supply_percent"`
}

// PercentOfDesign returns 100 × actual / design, or 0 when design is not
// positive.
func PercentOfDesign(actual, design float64) float64 {
	if design <= 0 || isNonFinite(design) || isNonFinite(actual) {
		return 0
	}
	return 100 * actual / design
}

// AggregateCanopy sums section flows into canopy totals. Supply is summed only
// for models that supply air.
func AggregateCanopy(desc ModelDescriptor, c CanopyRecord, sections []SectionFlow) CanopyTotals {
	extract := make([]float64, len(sections))
	supply := make([]float64, len(sections))
	for i, s := range sections {
		extract[i] = s.Extract.M3s
		supply[i] = s.Supply.M3s
	}

	t := CanopyTotals{
		DesignM3s:       c.DesignAirflowM3s,
		SupplyDesignM3s: c.SupplyAirflowM3s,
		SuppliesAir:     desc.SuppliesAir,
		ExtractM3s:      floats.Sum(extract),
	}
	if desc.SuppliesAir {
		t.SupplyM3s = floats.Sum(supply)
	}
	t.ExtractPercent = PercentOfDesign(t.ExtractM3s, t.DesignM3s)
	t.SupplyPercent = PercentOfDesign(t.SupplyM3s, t.SupplyDesignM3s)
	return t
}

// AggregateProject sums canopy totals into project totals. Supply figures
// accumulate only from canopies that supply air and declare a supply design
// airflow.
func AggregateProject(canopies []CanopyTotals) ProjectTotals {
	var extractDesign, extractActual, supplyDesign, supplyActual []float64
	for _, c := range canopies {
		extractDesign = append(extractDesign, c.DesignM3s)
		extractActual = append(extractActual, c.ExtractM3s)
		if c.SuppliesAir && c.SupplyDesignM3s > 0 {
			supplyDesign = append(supplyDesign, c.SupplyDesignM3s)
			supplyActual = append(supplyActual, c.SupplyM3s)
		}
	}

	p := ProjectTotals{
		ExtractDesignM3s: floats.Sum(extractDesign),
		ExtractActualM3s: floats.Sum(extractActual),
		SupplyDesignM3s:  floats.Sum(supplyDesign),
		SupplyActualM3s:  floats.Sum(supplyActual),
	}
	p.ExtractPercent = PercentOfDesign(p.ExtractActualM3s, p.ExtractDesignM3s)
	p.SupplyPercent = PercentOfDesign(p.SupplyActualM3s, p.SupplyDesignM3s)
	return p
}
