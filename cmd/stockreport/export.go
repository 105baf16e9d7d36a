package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockledger/internal/app"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/export"
	"stockledger/pkg/config"
	"stockledger/pkg/logger"
)

type exportOptions struct {
	from, to   string
	locations  []string
	categories []string
	products   []string
	state      string
	reportType string
	format     string
	out        string
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build the stock in/out report and write it to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := exportOpts.filter()
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(exportOpts.format)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		ctx := logger.WithLogger(cmd.Context(), log)

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Reports.StockInOut(ctx, filter)
		if err != nil {
			return err
		}

		data, err := export.Render(format, report)
		if err != nil {
			return err
		}

		out := exportOpts.out
		if out == "" {
			out = format.FileName()
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(report.Rows), out)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.from, "from", "", "Period start date (YYYY-MM-DD)")
	f.StringVar(&exportOpts.to, "to", "", "Period end date, inclusive (YYYY-MM-DD)")
	f.StringSliceVar(&exportOpts.locations, "location", nil, "Location ids (repeatable or comma-separated)")
	f.StringSliceVar(&exportOpts.categories, "category", nil, "Product category ids")
	f.StringSliceVar(&exportOpts.products, "product", nil, "Product ids; overrides --category")
	f.StringVar(&exportOpts.state, "state", string(reports.StateDone), "Move state: done, ready or all")
	f.StringVar(&exportOpts.reportType, "type", string(ledger.ModeDetailed), "Report type: detailed or summary")
	f.StringVar(&exportOpts.format, "format", string(export.FormatXLSX), "Output format: xlsx or pdf")
	f.StringVarP(&exportOpts.out, "out", "o", "", "Output file (default stock_report.<format>)")
	_ = exportCmd.MarkFlagRequired("from")
	_ = exportCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(exportCmd)
}

// filter converts the flags into a report filter.
func (o exportOptions) filter() (reports.StockInOutFilter, error) {
	var (
		f   reports.StockInOutFilter
		err error
	)
	if f.DateStart, err = time.Parse(time.DateOnly, o.from); err != nil {
		return f, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", o.from)
	}
	if f.DateEnd, err = time.Parse(time.DateOnly, o.to); err != nil {
		return f, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", o.to)
	}
	if f.LocationIDs, err = parseIDs("location", o.locations); err != nil {
		return f, err
	}
	if f.CategoryIDs, err = parseIDs("category", o.categories); err != nil {
		return f, err
	}
	if f.ProductIDs, err = parseIDs("product", o.products); err != nil {
		return f, err
	}
	f.State = reports.MoveState(strings.ToLower(o.state))
	f.Type = ledger.Mode(strings.ToLower(o.reportType))

	return f, f.Normalize().Validate()
}

func parseIDs(flag string, values []string) ([]id.ID, error) {
	ids, err := id.ParseList(values)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return ids, nil
}
