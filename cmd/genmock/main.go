// Command genmock generates commissioning project fixtures and the report
// contexts they build into. It uses the real domain package so the expected
// output matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -count 25 -seed 7 \
//	  -projects-out data/mock/generated_projects.json \
//	  -reports-out data/mock/generated_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

var generatedAt = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

var (
	clients   = []string{"Acme Kitchens", "Café Rouge", "Northside Canteen", "Harbour Hotel", "St. Mary's School"}
	locations = []string{"Main kitchen", "Pass", "Pizza oven", "Fryers", "Wok station", "Dishwash"}
	grills    = []string{"300x300", "500x500", "600x600", "600x300"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 10, "number of projects to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	projectsOut := flag.String("projects-out", "", "output path for the project fixture")
	reportsOut := flag.String("reports-out", "", "output path for the report context fixture")
	flag.Parse()

	if *projectsOut == "" || *reportsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -projects-out, -reports-out")
	}

	// Set a fixed clock for reproducible generation timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	reg := domain.DefaultRegistry()
	builder := domain.NewBuilder(reg, domain.BuildOptions{}, nil)

	projects := make([]domain.Project, 0, *count)
	reports := make([]domain.ReportContext, 0, *count)
	for i := range *count {
		p := generateProject(rng, reg, i)
		rc, err := builder.Build(p)
		if err != nil {
			return fmt.Errorf("build project %d: %w", i+1, err)
		}
		projects = append(projects, p)
		reports = append(reports, rc)
	}

	if err := writeJSON(*projectsOut, projects); err != nil {
		return fmt.Errorf("writing project fixture: %w", err)
	}
	log.Printf("wrote project fixture: %s", *projectsOut)

	if err := writeJSON(*reportsOut, reports); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote report fixture: %s", *reportsOut)

	printStats(reports)
	return nil
}

func generateProject(rng *rand.Rand, reg *domain.Registry, i int) domain.Project {
	models := reg.Models()
	n := 1 + rng.IntN(4)

	p := domain.Project{
		ReportType:    "Canopy Commissioning",
		ClientName:    clients[rng.IntN(len(clients))],
		ProjectName:   fmt.Sprintf("Site %d", i+1),
		ProjectNumber: fmt.Sprintf("GM-%04d", i+1),
		DateOfVisit:   generatedAt.AddDate(0, 0, -1-rng.IntN(30)).Format("2006-01-02"),
		EngineerName:  "Mock Engineer",
		NumCanopies:   n,
		Canopies:      make([]domain.CanopyRecord, 0, n),
	}
	for j := range n {
		d := models[rng.IntN(len(models))]
		p.Canopies = append(p.Canopies, generateCanopy(rng, d, fmt.Sprintf("%s-%02d", p.ProjectNumber, j+1)))
	}
	return p
}

func generateCanopy(rng *rand.Rand, d domain.ModelDescriptor, drawing string) domain.CanopyRecord {
	c := domain.CanopyRecord{
		DrawingNumber:    drawing,
		Location:         locations[rng.IntN(len(locations))],
		ModelCode:        d.Code,
		DesignAirflowM3s: roundTo(0.3+rng.Float64()*1.2, 2),
	}
	if d.SuppliesAir {
		c.SupplyAirflowM3s = roundTo(c.DesignAirflowM3s*0.3, 2)
	}
	c.WithUVChecks = d.UV
	c.WithWaterWashChecks = d.CMW

	switch d.Classification {
	case domain.LengthBased:
		keys := d.Keys()
		length := keys[rng.IntN(len(keys))]
		c.CanopyLengthMM = &length
		c.ExtractTabReading = domain.NewReading(float64(40 + rng.IntN(120)))
		if d.SuppliesAir {
			plenum := keys[rng.IntN(len(keys))]
			c.SupplyPlenumLength = &plenum
			c.SupplyTabReading = domain.NewReading(float64(5 + rng.IntN(40)))
		}
		return c
	case domain.GrillAnemometer:
		grill := grills[rng.IntN(len(grills))]
		c.GrillSize = &grill
	case domain.SlotAnemometerSupplyExtract, domain.SlotAnemometerExtractOnly:
		slot := float64(1000 + 500*rng.IntN(5))
		c.SlotLengthMM = &slot
	}

	c.NumberOfSections = 1 + rng.IntN(3)
	c.WithMarvel = rng.IntN(4) == 0
	c.Sections = domain.ResizeSections(d, c, c.NumberOfSections)
	for i := range c.Sections {
		fillSection(rng, d, c, &c.Sections[i])
	}

	// Some engineers add a section after taking readings; it stays blank.
	if rng.IntN(6) == 0 {
		c.NumberOfSections++
		c.Sections = domain.ResizeSections(d, c, c.NumberOfSections)
	}
	return c
}

// fillSection enters readings into a canonical section record.
func fillSection(rng *rand.Rand, d domain.ModelDescriptor, c domain.CanopyRecord, s *domain.SectionRecord) {
	switch d.Classification {
	case domain.SectionBased:
		keys := d.Keys()
		ksa := keys[rng.IntN(len(keys))]
		s.ExtractKSA = &ksa
		s.ExtractTabReading = domain.NewReading(float64(40 + rng.IntN(120)))
		if s.SupplyPlenumLength != nil {
			s.SupplyTabReading = domain.NewReading(float64(5 + rng.IntN(40)))
		}
	default:
		s.AnemometerReading = domain.NewReading(roundTo(0.5+rng.Float64()*2.5, 2))
		if d.Classification == domain.SlotAnemometerSupplyExtract {
			s.SupplyAnemometerReading = domain.NewReading(roundTo(0.3+rng.Float64(), 2))
		}
	}
	if c.WithMarvel {
		minPct, idlePct := float64(20+rng.IntN(20)), float64(40+rng.IntN(20))
		design := roundTo(c.DesignAirflowM3s/float64(c.NumberOfSections), 3)
		s.MinPercent, s.IdlePercent, s.DesignM3s = &minPct, &idlePct, &design
	}
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for range places {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type nameCount struct {
	name  string
	count int
}

func sortedCounts(m map[string]int) []nameCount {
	out := make([]nameCount, 0, len(m))
	for k, v := range m {
		out = append(out, nameCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func printStats(reports []domain.ReportContext) {
	classes := map[string]int{}
	reasons := map[string]int{}
	var canopies, marvel, supplyRows int
	for _, rc := range reports {
		canopies += len(rc.Canopies)
		marvel += len(rc.MarvelCanopies)
		supplyRows += len(rc.SupplyResults)
		for _, c := range rc.Canopies {
			classes[c.Classification.String()]++
		}
		for _, w := range rc.Warnings {
			reasons[w.Reason]++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Projects: %d, canopies: %d, marvel: %d, supply rows: %d\n",
		len(reports), canopies, marvel, supplyRows)
	fmt.Print("By classification:")
	for _, c := range sortedCounts(classes) {
		fmt.Printf(" %s=%d", c.name, c.count)
	}
	fmt.Println()
	fmt.Print("Warnings:")
	for _, c := range sortedCounts(reasons) {
		fmt.Printf(" %s=%d", c.name, c.count)
	}
	fmt.Println()

	if len(reports) > 0 {
		rc := reports[0]
		fmt.Printf("\nFirst report: %s (%s)\n", rc.ReportID, rc.Filename)
		fmt.Printf("  extract: %s / %s m3/s (%s)\n", rc.ExtractTotalActual, rc.ExtractTotalDesign, rc.ExtractTotalPercentage)
		fmt.Printf("  supply:  %s / %s m3/s (%s)\n", rc.SupplyTotalActual, rc.SupplyTotalDesign, rc.SupplyTotalPercentage)
	}
}
