package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

const defaultShareBaseURL = "http://localhost:8535"

// LinkResult is the output of link encode.
type LinkResult struct {
	Data string `json:"data"`
	URL  string `json:"url"`
}

// NewLinkCommand creates the link command group.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Encode and decode portable project links",
	}
	cmd.AddCommand(newLinkEncodeCommand(rootOpts))
	cmd.AddCommand(newLinkDecodeCommand(rootOpts))
	return cmd
}

func newLinkEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "encode <project-file>",
		Short: "Encode a project file as a portable link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			p, err := readProject(args[0], cmd.InOrStdin())
			if err != nil {
				return failProject(formatter, err)
			}
			data, err := domain.EncodeLink(p)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
			}
			shareURL, err := domain.ShareURL(baseURL, p)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
			}
			formatter.VerboseLog("encoded %d canopies into %d bytes", len(p.Canopies), len(data))

			res := LinkResult{Data: data, URL: shareURL}
			return formatter.Success(res, func(w io.Writer) {
				fmt.Fprintln(w, res.URL)
			})
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", defaultShareBaseURL, "base URL of the commissioning form")
	return cmd
}

func newLinkDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <data-or-share-url>",
		Short: "Decode a portable link back into project JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			p, err := domain.DecodeLink(domain.LinkFromShareURL(strings.TrimSpace(args[0])))
			if err != nil {
				return failProject(formatter, err)
			}
			return formatter.Success(p, func(w io.Writer) {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				_ = enc.Encode(p)
			})
		},
	}
}
