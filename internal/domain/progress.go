package domain

import "strings"

// Progress is the completion state of a project form.
type Progress struct {
	Completed int     `json:"completed_fields"`
	Total     int     `json:"total_fields"`
	Ratio     float64 `json:"ratio"`
}

// FormProgress counts completed form fields: the six project fields, seven
// fields per canopy, the per-section fields its classification uses and the
// Edge box fields once any of them is set. The ratio is capped at 1.
func FormProgress(reg *Registry, p Project) Progress {
	var pr Progress
	for _, s := range []string{p.ReportType, p.ClientName, p.ProjectName, p.ProjectNumber, p.DateOfVisit, p.EngineerName} {
		pr.count(strings.TrimSpace(s) != "")
	}

	for _, c := range p.Canopies {
		pr.count(strings.TrimSpace(c.DrawingNumber) != "")
		pr.count(strings.TrimSpace(c.Location) != "")
		pr.count(strings.TrimSpace(c.ModelCode) != "")
		pr.count(true) // with_marvel is a toggle; either value is an answer
		pr.count(c.DesignAirflowM3s > 0)
		pr.count(c.SupplyAirflowM3s > 0)
		pr.count(c.NumberOfSections > 0)

		desc, ok := reg.Lookup(c.ModelCode)
		if !ok || desc.Classification == LengthBased {
			continue
		}
		n := min(c.NumberOfSections, MaxSections)
		for i := 0; i < n; i++ {
			var s SectionRecord
			if i < len(c.Sections) {
				s = c.Sections[i]
			}
			pr.countSection(desc, c.WithMarvel, s)
		}
	}

	if e := p.EdgeBox; e != nil && (e.EdgeInstalled || e.EdgeID != "" || e.Edge4GStatus != "" || e.LANConnection || e.ModbusOperation) {
		pr.count(e.EdgeInstalled)
		pr.count(e.EdgeID != "")
		pr.count(e.Edge4GStatus != "")
		pr.count(e.LANConnection)
		pr.count(e.ModbusOperation)
		if e.ModbusOperation {
			pr.count(e.ModbusValue != nil)
		}
	}

	if pr.Total > 0 {
		pr.Ratio = min(float64(pr.Completed)/float64(pr.Total), 1)
	}
	return pr
}

func (pr *Progress) count(done bool) {
	pr.Total++
	if done {
		pr.Completed++
	}
}

func (pr *Progress) countSection(desc ModelDescriptor, marvel bool, s SectionRecord) {
	switch {
	case desc.Classification == SectionBased:
		pr.count(derefInt(s.ExtractKSA) > 0)
		pr.count(s.ExtractTabReading.Text() != "")
		if desc.SuppliesAir {
			pr.count(derefInt(s.SupplyPlenumLength) > 0)
			pr.count(s.SupplyTabReading.Text() != "")
		}
	case desc.Classification.UsesAnemometer():
		pr.count(s.AnemometerReading.Text() != "")
		if desc.Classification == SlotAnemometerSupplyExtract {
			pr.count(s.SupplyAnemometerReading.Text() != "")
		}
	}
	if marvel {
		pr.count(derefFloat(s.MinPercent) > 0)
		pr.count(derefFloat(s.IdlePercent) > 0)
		pr.count(derefFloat(s.DesignM3s) > 0)
	}
}
