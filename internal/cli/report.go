package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lunchreports/internal/core"
	"lunchreports/internal/render"
	"lunchreports/internal/services"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		combined bool
		items    []string
		format   string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the lunch order report by item or the combined report",
		Long: "Print the lunch order report. Without --item every lunch item is included. " +
			"--item may repeat and each value may be a comma-separated list.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" && format != "pdf" {
				return fmt.Errorf("unknown format %q: must be text, json or pdf", format)
			}

			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			kind := core.KindSingleItem
			if combined {
				kind = core.KindCombined
			}
			reports := services.NewReportService(store, appLogger())
			names := core.ParseItemNames(items)

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if format == "json" {
				return writeReportJSON(cmd, w, reports, kind, names)
			}

			heading, tables, err := reports.Tables(cmd.Context(), kind, names)
			if err != nil {
				return err
			}
			if format == "pdf" {
				return render.PDF(w, heading, tables)
			}
			_, err = fmt.Fprintln(w, render.Text(heading, tables))
			return err
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&combined, "combined", false, "print the combined roster report")
	flags.StringSliceVar(&items, "item", nil, "lunch item to include (repeatable)")
	flags.StringVar(&format, "format", "text", "output format: text, json or pdf")
	flags.StringVarP(&out, "out", "o", "", "write the report to a file instead of stdout")
	return cmd
}

func writeReportJSON(cmd *cobra.Command, w io.Writer, reports *services.ReportService, kind core.ReportKind, names []string) error {
	var (
		report any
		err    error
	)
	if kind == core.KindCombined {
		report, err = reports.BuildCombinedReport(cmd.Context(), names)
	} else {
		report, err = reports.BuildSingleItemReport(cmd.Context(), names)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
