package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	Output           string
	FreeAreaFraction float64
	Strict           bool
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report <project-file>",
		Short: "Build the report context of a project file",
		Long: `Build the commissioning report context of a project saved as JSON or YAML.
Use "-" to read JSON from stdin.

Canopies or sections with unusable input are reported as warnings and
contribute zero flow. With --strict the command exits 1 when any warning
was recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the report context JSON to this file")
	cmd.Flags().Float64Var(&opts.FreeAreaFraction, "free-area-fraction", domain.DefaultFreeAreaFraction, "fraction of a grill or slot that is open")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when the report has warnings")

	return cmd
}

func runReport(rootOpts *RootOptions, opts *ReportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	if opts.FreeAreaFraction <= 0 || opts.FreeAreaFraction > 1 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Errorf("invalid --free-area-fraction %v: must be in (0, 1]", opts.FreeAreaFraction))
	}

	p, err := readProject(path, cmd.InOrStdin())
	if err != nil {
		return failProject(formatter, err)
	}
	formatter.VerboseLog("loaded %s: %d canopies", path, len(p.Canopies))

	logger := slog.New(slog.DiscardHandler)
	if rootOpts.Verbose {
		logger = slog.New(slog.NewTextHandler(formatter.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	builder := domain.NewBuilder(nil, domain.BuildOptions{
		FreeAreaFraction: opts.FreeAreaFraction,
	}, logger)

	rc, err := builder.Build(p)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	if opts.Output != "" {
		if err := writeReportFile(opts.Output, rc); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
		}
		formatter.VerboseLog("wrote %s", opts.Output)
	}

	if err := formatter.Success(rc, func(w io.Writer) { printReport(w, rc) }); err != nil {
		return err
	}

	if opts.Strict && len(rc.Warnings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d warnings", ErrCodeDegraded, len(rc.Warnings)))
	}
	return nil
}

func failProject(formatter *OutputFormatter, err error) error {
	var fe *fileError
	switch {
	case errors.As(err, &fe):
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err)
	case errors.Is(err, domain.ErrInvalidLink):
		return formatter.Fail(ExitCommandError, ErrCodeInvalidLink, err)
	case errors.Is(err, domain.ErrInvalidProject):
		return formatter.Fail(ExitCommandError, ErrCodeInvalidProject, err)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
}

func writeReportFile(path string, rc domain.ReportContext) error {
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printReport(w io.Writer, rc domain.ReportContext) {
	fmt.Fprintf(w, "Report %s\n", rc.ReportID)
	fmt.Fprintf(w, "  client:   %s\n", rc.ClientName)
	fmt.Fprintf(w, "  project:  %s %s\n", rc.ProjectNumber, rc.ProjectName)
	fmt.Fprintf(w, "  file:     %s\n", rc.Filename)
	fmt.Fprintf(w, "  canopies: %d\n", len(rc.Canopies))
	fmt.Fprintf(w, "  progress: %d/%d\n", rc.Progress.Completed, rc.Progress.Total)

	printResults(w, "Extract", rc.ExtractResults, rc.ExtractTotalDesign, rc.ExtractTotalActual, rc.ExtractTotalPercentage)
	if len(rc.SupplyResults) > 0 {
		printResults(w, "Supply", rc.SupplyResults, rc.SupplyTotalDesign, rc.SupplyTotalActual, rc.SupplyTotalPercentage)
	}

	if len(rc.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d)\n", len(rc.Warnings))
		for _, warn := range rc.Warnings {
			loc := fmt.Sprintf("canopy %d", warn.Canopy)
			if warn.Section > 0 {
				loc += fmt.Sprintf(" section %d", warn.Section)
			}
			fmt.Fprintf(w, "  %s [%s] %s\n", loc, warn.Reason, warn.Message)
		}
	}
}

func printResults(w io.Writer, title string, rows []domain.ResultRow, design, actual, pct string) {
	fmt.Fprintf(w, "\n%s\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DRAWING\tDESIGN m3/s\tACTUAL m3/s\t% OF DESIGN")
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.DrawingNumber, r.DesignFlowRate, r.ActualFlowrate, r.Percentage)
	}
	fmt.Fprintf(tw, "  TOTAL\t%s\t%s\t%s\n", design, actual, pct)
	tw.Flush()
}
