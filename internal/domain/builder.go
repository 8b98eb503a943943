package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// reportNamespace seeds the name-based UUIDs used as report IDs.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:canopy-commissioning:report"))

// BuildOptions tunes report construction.
type BuildOptions struct {
	// FreeAreaFraction is the open fraction of grill and slot faces. Zero
	// means DefaultFreeAreaFraction.
	FreeAreaFraction float64
	// Clock stamps the generation time. Nil uses the package clock.
	Clock clockwork.Clock
}

// Builder turns project snapshots into report contexts. It holds no
// per-report state and is safe for concurrent use.
type Builder struct {
	registry *Registry
	opts     BuildOptions
	logger   *slog.Logger
}

// NewBuilder returns a Builder. A nil registry uses DefaultRegistry and a nil
// logger discards output.
func NewBuilder(reg *Registry, opts BuildOptions, logger *slog.Logger) *Builder {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if opts.FreeAreaFraction <= 0 || opts.FreeAreaFraction > 1 {
		opts.FreeAreaFraction = DefaultFreeAreaFraction
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{registry: reg, opts: opts, logger: logger}
}

// Registry returns the model registry the builder classifies against.
func (b *Builder) Registry() *Registry { return b.registry }

func (b *Builder) now() time.Time {
	if b.opts.Clock != nil {
		return b.opts.Clock.Now()
	}
	return clock.Now()
}

// BuildJSON parses a project snapshot and builds its report context.
func (b *Builder) BuildJSON(data []byte) (ReportContext, error) {
	p, err := ParseProject(data)
	if err != nil {
		return ReportContext{}, err
	}
	return b.Build(p)
}

// Build computes the report context of a project in one pass. Bad canopy or
// section data never fails the build: the affected values are zero and a
// Warning is recorded.
func (b *Builder) Build(p Project) (ReportContext, error) {
	id, err := ReportID(p)
	if err != nil {
		return ReportContext{}, err
	}
	at := b.now()

	rc := ReportContext{
		ReportID:         id,
		ReportType:       p.ReportType,
		ClientName:       p.ClientName,
		ProjectName:      p.ProjectName,
		ProjectNumber:    p.ProjectNumber,
		DateOfVisit:      p.DateOfVisit,
		EngineerName:     p.EngineerName,
		GeneratedAt:      at,
		GenerationDate:   at.Format("2006-01-02"),
		GenerationTime:   at.Format("15:04:05"),
		NumCanopies:      p.NumCanopies,
		Canopies:         make([]CanopyContext, 0, len(p.Canopies)),
		MarvelCanopies:   []CanopyContext{},
		StandardCanopies: []CanopyContext{},
		ExtractResults:   []ResultRow{},
		SupplyResults:    []ResultRow{},
		Warnings:         append([]Warning{}, p.decodeIssues...),
	}
	if rc.NumCanopies == 0 {
		rc.NumCanopies = len(p.Canopies)
	}

	totals := make([]CanopyTotals, 0, len(p.Canopies))
	for i, c := range p.Canopies {
		cc, t, warnings := b.buildCanopy(i+1, c)
		rc.Warnings = append(rc.Warnings, warnings...)
		rc.Canopies = append(rc.Canopies, cc)
		totals = append(totals, t)

		if c.WithMarvel {
			rc.MarvelCanopies = append(rc.MarvelCanopies, cc)
		} else {
			rc.StandardCanopies = append(rc.StandardCanopies, cc)
		}
		rc.HasUVTechnology = rc.HasUVTechnology || cc.IsUV
		rc.HasCMWTechnology = rc.HasCMWTechnology || cc.IsCMW
	}
	rc.HasMarvelTechnology = len(rc.MarvelCanopies) > 0

	if rc.HasUVTechnology {
		rc.UVChecklist = SummarizeChecklist(UVSystemChecklist, p.UVChecklist)
	}
	if rc.HasCMWTechnology {
		rc.WaterWashChecklist = SummarizeChecklist(WaterWashChecklist, p.WaterWashChecklist)
	}

	b.summarize(&rc, totals)

	rc.EdgeBox = edgeBoxContext(p.EdgeBox)
	rc.AdditionalNotes = p.AdditionalNotes
	rc.NotesList = append([]string{}, p.NotesList...)
	rc.HasNotes = len(p.NotesList) > 0
	rc.SignatureData = p.SignatureData
	rc.SignatureDate = p.SignatureDate
	rc.PrintName = p.PrintName
	rc.HasSignature = p.HasSignature
	if p.HasSignature {
		rc.SignatureImageBase64 = signatureImage(p.SignatureData)
	}

	rc.Filename = ReportFilename(p, at)
	rc.Progress = FormProgress(b.registry, p)

	for _, w := range rc.Warnings {
		b.logger.Warn("report input degraded",
			"report_id", rc.ReportID,
			"canopy", w.Canopy,
			"section", w.Section,
			"reason", w.Reason,
			"message", w.Message,
		)
	}
	return rc, nil
}

// ReportID returns the deterministic identifier of a project snapshot: a
// name-based UUID over its canonical JSON.
func ReportID(p Project) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize project: %w", err)
	}
	return uuid.NewSHA1(reportNamespace, data).String(), nil
}

// summarize fills the results tables and grand totals. Totals are summed from
// the rounded canopy figures so the printed table adds up.
func (b *Builder) summarize(rc *ReportContext, totals []CanopyTotals) {
	for i, cc := range rc.Canopies {
		t := totals[i]
		rc.ExtractResults = append(rc.ExtractResults, resultRow(cc.DrawingNumber, t.DesignM3s, t.ExtractM3s, t.ExtractPercent))
		if t.SuppliesAir && t.SupplyDesignM3s > 0 {
			rc.SupplyResults = append(rc.SupplyResults, resultRow(cc.DrawingNumber, t.SupplyDesignM3s, t.SupplyM3s, t.SupplyPercent))
		}
	}

	rc.Totals = AggregateProject(totals)
	rc.ExtractTotalDesign = fmt.Sprintf("%.2f", rc.Totals.ExtractDesignM3s)
	rc.ExtractTotalActual = fmt.Sprintf("%.3f", rc.Totals.ExtractActualM3s)
	rc.ExtractTotalPercentage = fmt.Sprintf("%.1f%%", rc.Totals.ExtractPercent)
	rc.SupplyTotalDesign = fmt.Sprintf("%.2f", rc.Totals.SupplyDesignM3s)
	rc.SupplyTotalActual = fmt.Sprintf("%.3f", rc.Totals.SupplyActualM3s)
	rc.SupplyTotalPercentage = fmt.Sprintf("%.1f%%", rc.Totals.SupplyPercent)
}

func resultRow(drawing string, design, actual, percent float64) ResultRow {
	return ResultRow{
		DrawingNumber:  drawing,
		DesignFlowRate: fmt.Sprintf("%.2f", design),
		ActualFlowrate: fmt.Sprintf("%.3f", actual),
		Percentage:     fmt.Sprintf("%.1f%%", percent),
	}
}

// buildCanopy computes one canopy. index is 1-based.
func (b *Builder) buildCanopy(index int, c CanopyRecord) (CanopyContext, CanopyTotals, []Warning) {
	cc := CanopyContext{
		Index:               index,
		DrawingNumber:       c.DrawingNumber,
		Location:            c.Location,
		ModelCode:           c.ModelCode,
		WithMarvel:          c.WithMarvel,
		WithUVChecks:        c.WithUVChecks,
		WithWaterWashChecks: c.WithWaterWashChecks,
		DesignAirflowM3s:    c.DesignAirflowM3s,
		SupplyAirflowM3s:    c.SupplyAirflowM3s,
		NumberOfSections:    c.NumberOfSections,
		HasFInName:          strings.Contains(c.ModelCode, "F"),
		HasUVInName:         strings.Contains(c.ModelCode, "UV"),
		Sections:            []SectionContext{},
	}

	var warnings []Warning
	warn := func(section int, reason string, err error) {
		warnings = append(warnings, Warning{Canopy: index, Section: section, Reason: reason, Message: err.Error()})
	}

	if len(c.Sections) > MaxSections {
		warn(0, ReasonSectionLimit, fmt.Errorf("%d sections given, only the first %d are used", len(c.Sections), MaxSections))
	}

	desc, ok := b.registry.Lookup(c.ModelCode)
	if !ok {
		_, err := b.registry.Classify(c.ModelCode)
		warn(0, ReasonUnknownModel, err)
		for i := range ShapeSections(desc, c).(UnknownShape).Sections {
			cc.Sections = append(cc.Sections, SectionContext{Index: i + 1})
		}
		return cc, AggregateCanopy(desc, c, nil), warnings
	}

	cc.KnownModel = true
	cc.Family = desc.Family
	cc.Classification = desc.Classification
	cc.SuppliesAir = desc.SuppliesAir
	cc.IsUV = desc.UV
	cc.IsCMW = desc.CMW
	cc.IsSectionBased = desc.Classification == SectionBased
	cc.IsLengthBased = desc.Classification == LengthBased
	cc.IsCXW = desc.Classification == GrillAnemometer
	cc.IsCMWF = desc.Classification == SlotAnemometerSupplyExtract
	cc.IsCMWI = desc.Classification == SlotAnemometerExtractOnly

	if desc.UV && c.WithUVChecks {
		cc.UVChecklist = SummarizeChecklist(UVSystemChecklist, c.UVChecklist)
	}
	if desc.CMW && c.WithWaterWashChecks {
		cc.WaterWashChecklist = SummarizeChecklist(WaterWashChecklist, c.WaterWashChecklist)
	}

	readingWarn := func(section int, err error) {
		if err != nil && !errors.Is(err, ErrMissingReading) {
			warn(section, ReasonUnparsableReading, err)
		}
	}

	var flows []SectionFlow
	switch shape := ShapeSections(desc, c).(type) {
	case KSAShape:
		for i, s := range shape.Sections {
			k := b.registry.KFactor(desc.Code, s.ExtractKSA)
			extract, err := OrificeFlow(k, s.ExtractTabReading)
			readingWarn(i+1, err)

			sc := SectionContext{
				Index:             i + 1,
				ExtractKSA:        ptr(s.ExtractKSA),
				ExtractTabReading: ptr(s.ExtractTabReading.Text()),
				ExtractKFactor:    ptr(k),
				Marvel:            s.Marvel,
			}
			sf := SectionFlow{Extract: extract}
			if s.Supply != nil {
				// Section-based supply shares the extract KSA K-factor.
				sf.Supply, err = OrificeFlow(k, s.Supply.TabReading)
				readingWarn(i+1, err)
				sc.SupplyPlenumLength = ptr(s.Supply.PlenumLengthMM)
				sc.SupplyTabReading = ptr(s.Supply.TabReading.Text())
				sc.SupplyKFactor = ptr(k)
			}
			fillFlows(&sc, sf, s.Supply != nil)
			cc.Sections = append(cc.Sections, sc)
			flows = append(flows, sf)
		}

	case LengthShape:
		cc.CanopyLengthMM = copyInt(c.CanopyLengthMM)
		u := shape.Unit
		k := b.registry.KFactor(desc.Code, u.LengthMM)
		extract, err := OrificeFlow(k, u.ExtractTabReading)
		readingWarn(1, err)

		sc := SectionContext{
			Index:             1,
			CanopyLengthMM:    ptr(u.LengthMM),
			ExtractTabReading: ptr(u.ExtractTabReading.Text()),
			ExtractKFactor:    ptr(k),
		}
		sf := SectionFlow{Extract: extract}
		if u.Supply != nil {
			sk := b.registry.KFactor(desc.Code, u.Supply.PlenumLengthMM)
			sf.Supply, err = OrificeFlow(sk, u.Supply.TabReading)
			readingWarn(1, err)
			sc.SupplyPlenumLength = ptr(u.Supply.PlenumLengthMM)
			sc.SupplyTabReading = ptr(u.Supply.TabReading.Text())
			sc.SupplyKFactor = ptr(sk)
		}
		fillFlows(&sc, sf, u.Supply != nil)
		cc.Sections = append(cc.Sections, sc)
		flows = append(flows, sf)

	case AnemometerShape:
		area, err := b.freeArea(desc, c, &cc)
		if err != nil && len(shape.Sections) > 0 {
			warn(0, ReasonUnparsableGeometry, err)
		}
		for i, s := range shape.Sections {
			extract, err := VelocityFlow(area, s.Reading)
			readingWarn(i+1, err)

			sc := SectionContext{
				Index:             i + 1,
				AnemometerReading: ptr(s.Reading.Text()),
				FreeAreaM2:        ptr(round(area, 4)),
				Marvel:            s.Marvel,
			}
			sf := SectionFlow{Extract: extract}
			supplies := desc.Classification == SlotAnemometerSupplyExtract
			if supplies {
				sf.Supply, err = VelocityFlow(area, s.SupplyReading)
				readingWarn(i+1, err)
				sc.SupplyAnemometerReading = ptr(s.SupplyReading.Text())
			}
			fillFlows(&sc, sf, supplies)
			cc.Sections = append(cc.Sections, sc)
			flows = append(flows, sf)
		}
	}

	t := AggregateCanopy(desc, c, flows)
	t.ExtractM3s = round(t.ExtractM3s, 3)
	t.SupplyM3s = round(t.SupplyM3s, 3)
	t.ExtractPercent = PercentOfDesign(t.ExtractM3s, t.DesignM3s)
	t.SupplyPercent = PercentOfDesign(t.SupplyM3s, t.SupplyDesignM3s)

	if t.DesignM3s <= 0 && t.ExtractM3s > 0 {
		warn(0, ReasonDivisionGuard, fmt.Errorf("design airflow %g is not positive, extract percentage reported as 0", t.DesignM3s))
	}
	if t.SuppliesAir && t.SupplyDesignM3s <= 0 && t.SupplyM3s > 0 {
		warn(0, ReasonDivisionGuard, fmt.Errorf("supply airflow %g is not positive, supply percentage reported as 0", t.SupplyDesignM3s))
	}

	cc.ExtractTotalM3s = t.ExtractM3s
	cc.SupplyTotalM3s = t.SupplyM3s
	cc.ExtractPercentOfDesign = t.ExtractPercent
	cc.SupplyPercentOfDesign = t.SupplyPercent
	return cc, t, warnings
}

// freeArea computes the grill or slot free area of an anemometer canopy and
// records the geometry on cc.
func (b *Builder) freeArea(desc ModelDescriptor, c CanopyRecord, cc *CanopyContext) (float64, error) {
	var (
		area float64
		err  error
	)
	if desc.Classification == GrillAnemometer {
		size := ""
		if c.GrillSize != nil {
			size = *c.GrillSize
		}
		cc.GrillSize = size
		area, err = FreeAreaFromGrill(size, b.opts.FreeAreaFraction)
	} else {
		length := derefFloat(c.SlotLengthMM)
		width := c.SlotWidth()
		cc.SlotLengthMM = ptr(length)
		cc.SlotWidthMM = ptr(width)
		area, err = FreeAreaFromSlot(length, width, b.opts.FreeAreaFraction)
	}
	if err != nil {
		return 0, err
	}
	cc.FreeAreaM2 = ptr(round(area, 4))
	return area, nil
}

func fillFlows(sc *SectionContext, sf SectionFlow, supply bool) {
	sc.ExtractFlowrateM3h = round(sf.Extract.M3h, 2)
	sc.ExtractFlowrateM3s = round(sf.Extract.M3s, 3)
	if supply {
		sc.SupplyFlowrateM3h = ptr(round(sf.Supply.M3h, 2))
		sc.SupplyFlowrateM3s = ptr(round(sf.Supply.M3s, 3))
	}
}

func edgeBoxContext(e *EdgeBox) EdgeBoxContext {
	if e == nil {
		return EdgeBoxContext{}
	}
	return EdgeBoxContext{
		EdgeInstalled:   e.EdgeInstalled,
		EdgeID:          e.EdgeID,
		Edge4GStatus:    e.Edge4GStatus,
		LANConnection:   e.LANConnection,
		ModbusOperation: e.ModbusOperation,
		ModbusValue:     e.ModbusValue,
		HasEdgeData:     e.EdgeInstalled || e.EdgeID != "" || e.Edge4GStatus != "" || e.LANConnection || e.ModbusOperation,
	}
}

// signatureImage returns the base64 payload of a signature, stripping any
// data URL prefix, or "" when it does not decode.
func signatureImage(data string) string {
	data = strings.TrimSpace(data)
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return ""
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return ""
	}
	return data
}

func ptr[T any](v T) *T { return &v }
