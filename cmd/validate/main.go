// Command validate performs integrity checks on the generated commissioning
// fixtures: it rebuilds every project with the domain package and verifies
// the stored report contexts, their totals and the portable link round trip.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -projects-json data/mock/generated_projects.json \
//	  -reports-json data/mock/generated_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	projectsJSON := flag.String("projects-json", "", "path to the generated project fixture")
	reportsJSON := flag.String("reports-json", "", "path to the generated report context fixture")
	flag.Parse()

	if *projectsJSON == "" || *reportsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*projectsJSON, *reportsJSON); code != 0 {
		os.Exit(code)
	}
}

func run(projectsPath, reportsPath string) int {
	// Set a fixed clock matching genmock so rebuilt reports are identical.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Commissioning Fixture Validation ===")
	fmt.Println()

	projects, err := loadProjects(projectsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load projects: %v\n", err)
		return 1
	}

	reports, err := loadJSON[domain.ReportContext](reportsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reports: %v\n", err)
		return 1
	}

	builder := domain.NewBuilder(nil, domain.BuildOptions{}, nil)

	phases := []*phase{
		validateParity(projects, reports),
		validateReproduction(builder, projects, reports),
		validateTotals(reports),
		validateLinks(projects),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d projects, %d reports\n", len(projects), len(reports))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// loadProjects decodes each fixture entry with the lenient project decoder.
func loadProjects(path string) ([]domain.Project, error) {
	raws, err := loadJSON[json.RawMessage](path)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(raws))
	for i, raw := range raws {
		p, err := domain.ParseProject(raw)
		if err != nil {
			return nil, fmt.Errorf("project %d: %w", i+1, err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateParity(projects []domain.Project, reports []domain.ReportContext) *phase {
	p := &phase{name: "Fixture parity"}
	if len(projects) != len(reports) {
		p.errorf("count mismatch: %d projects, %d reports", len(projects), len(reports))
	}
	for i := range min(len(projects), len(reports)) {
		if projects[i].ProjectNumber != reports[i].ProjectNumber {
			p.errorf("entry %d: project %q has report for %q", i+1, projects[i].ProjectNumber, reports[i].ProjectNumber)
		}
		if len(projects[i].Canopies) != len(reports[i].Canopies) {
			p.errorf("entry %d: %d canopies in, %d out", i+1, len(projects[i].Canopies), len(reports[i].Canopies))
		}
	}
	return p
}

func validateReproduction(builder *domain.Builder, projects []domain.Project, reports []domain.ReportContext) *phase {
	p := &phase{name: "Report reproduction"}
	for i := range min(len(projects), len(reports)) {
		rebuilt, err := builder.Build(projects[i])
		if err != nil {
			p.errorf("entry %d: build: %v", i+1, err)
			continue
		}
		// Round-trip through JSON so both sides carry the same representation.
		data, err := json.Marshal(rebuilt)
		if err != nil {
			p.errorf("entry %d: marshal: %v", i+1, err)
			continue
		}
		var got domain.ReportContext
		if err := json.Unmarshal(data, &got); err != nil {
			p.errorf("entry %d: unmarshal: %v", i+1, err)
			continue
		}
		if diff := cmp.Diff(reports[i], got); diff != "" {
			p.errorf("entry %d (%s): report differs (-stored +rebuilt):\n%s", i+1, projects[i].ProjectNumber, diff)
		}
	}
	return p
}

func validateTotals(reports []domain.ReportContext) *phase {
	p := &phase{name: "Totals consistency"}
	for i, rc := range reports {
		checkResultTable(p, i, "extract", rc.ExtractResults, rc.ExtractTotalActual)
		checkResultTable(p, i, "supply", rc.SupplyResults, rc.SupplyTotalActual)

		if len(rc.ExtractResults) != len(rc.Canopies) {
			p.errorf("entry %d: %d extract rows for %d canopies", i+1, len(rc.ExtractResults), len(rc.Canopies))
		}
		if len(rc.MarvelCanopies)+len(rc.StandardCanopies) != len(rc.Canopies) {
			p.errorf("entry %d: marvel/standard partition does not cover every canopy", i+1)
		}
		if rc.Progress.Ratio < 0 || rc.Progress.Ratio > 1 {
			p.errorf("entry %d: progress ratio %v outside [0, 1]", i+1, rc.Progress.Ratio)
		}
		for _, c := range rc.Canopies {
			if c.ExtractTotalM3s < 0 || c.SupplyTotalM3s < 0 {
				p.errorf("entry %d canopy %d: negative flow", i+1, c.Index)
			}
		}
	}
	return p
}

// checkResultTable verifies the printed total equals the sum of printed rows.
func checkResultTable(p *phase, i int, name string, rows []domain.ResultRow, total string) {
	var sum float64
	for _, r := range rows {
		v, err := strconv.ParseFloat(r.ActualFlowrate, 64)
		if err != nil {
			p.errorf("entry %d %s row %s: bad actual %q", i+1, name, r.DrawingNumber, r.ActualFlowrate)
			return
		}
		sum += v
		if !strings.HasSuffix(r.Percentage, "%") {
			p.errorf("entry %d %s row %s: percentage %q lacks %%", i+1, name, r.DrawingNumber, r.Percentage)
		}
	}
	if len(rows) == 0 {
		return
	}
	got, err := strconv.ParseFloat(total, 64)
	if err != nil {
		p.errorf("entry %d: bad %s total %q", i+1, name, total)
		return
	}
	if math.Abs(got-sum) > 0.0005 {
		p.errorf("entry %d: %s total %s, rows sum to %.3f", i+1, name, total, sum)
	}
}

func validateLinks(projects []domain.Project) *phase {
	p := &phase{name: "Portable link round trip"}
	for i, proj := range projects {
		link, err := domain.EncodeLink(proj)
		if err != nil {
			p.errorf("entry %d: encode: %v", i+1, err)
			continue
		}
		back, err := domain.DecodeLink(link)
		if err != nil {
			p.errorf("entry %d: decode: %v", i+1, err)
			continue
		}
		want, err := domain.ReportID(proj)
		if err != nil {
			p.errorf("entry %d: report id: %v", i+1, err)
			continue
		}
		got, err := domain.ReportID(back)
		if err != nil {
			p.errorf("entry %d: report id: %v", i+1, err)
			continue
		}
		if want != got {
			p.errorf("entry %d: report id changed across link round trip (%s -> %s)", i+1, want, got)
		}
	}
	return p
}
