package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models [code]",
		Short: "List canopy models or show one model's coefficients",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			reg := domain.DefaultRegistry()

			if len(args) == 0 {
				infos := reg.ModelInfos()
				return formatter.Success(infos, func(w io.Writer) { printModels(w, infos) })
			}

			code := strings.ToUpper(strings.TrimSpace(args[0]))
			d, ok := reg.Lookup(code)
			if !ok {
				return formatter.Fail(ExitCommandError, ErrCodeUnknownModel,
					fmt.Errorf("%w: %q", domain.ErrUnknownModel, code))
			}
			info := d.Info()
			return formatter.Success(info, func(w io.Writer) { printModel(w, info) })
		},
	}
}

func printModels(w io.Writer, infos []domain.ModelInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tFAMILY\tCLASSIFICATION\tSUPPLY\tUV\tCMW")
	for _, m := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Code, m.Family, m.Classification, yesNo(m.SuppliesAir), yesNo(m.UV), yesNo(m.CMW))
	}
	tw.Flush()
}

func printModel(w io.Writer, m domain.ModelInfo) {
	fmt.Fprintf(w, "%s (%s)\n", m.Code, m.Family)
	fmt.Fprintf(w, "  classification: %s\n", m.Classification)
	fmt.Fprintf(w, "  supplies air:   %s\n", yesNo(m.SuppliesAir))
	if len(m.KFactors) == 0 {
		fmt.Fprintln(w, "  flow: free area x velocity")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\tK-FACTOR\n", strings.ToUpper(m.Lookup))
	for _, k := range m.KFactors {
		fmt.Fprintf(tw, "  %d\t%s\n", k.Key, strconv.FormatFloat(k.KFactor, 'f', -1, 64))
	}
	tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
