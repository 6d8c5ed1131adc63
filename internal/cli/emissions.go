package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/cli/pagination"
	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/logging"
)

func newEmissionsCmd() *cobra.Command {
	var (
		output  string
		noCache bool
		page    pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "emissions",
		Short: "List emission records for every invoice",
		Long: `Aggregates carbon, water and energy records for every invoice of every
product. Supplier metrics are fetched live; results are cached for the
configured TTL unless --no-cache is given.`,
		Example: `  # Table output (default)
  carbonledger emissions

  # JSON output for scripting
  carbonledger emissions --output json

  # One record per line
  carbonledger emissions --output ndjson --no-cache

  # The ten largest carbon contributors
  carbonledger emissions --sort co2e:desc --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEmissions(cmd, output, noCache, page)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table, json or ndjson (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the cache and aggregate live")
	addListFlags(cmd, &page, pagination.NewRecordSorter().ValidFields())

	return cmd
}

func runEmissions(cmd *cobra.Command, output string, noCache bool, page pagination.Params) error {
	format, err := resolveFormat(output)
	if err != nil {
		return err
	}
	if validateErr := page.Validate(); validateErr != nil {
		return validateErr
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, config.GetGlobalConfig(), !noCache)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	records, err := a.emissions.AggregateAll(ctx)
	if err != nil {
		return fmt.Errorf("aggregating emissions: %w", err)
	}

	records, err = pagination.NewRecordSorter().SortExpr(records, page.Sort)
	if err != nil {
		return err
	}
	records, meta := pagination.Window(records, page)
	logging.FromContext(ctx).Debug().Int("total", meta.TotalItems).Int("returned", meta.Returned).Msg("emissions listed")

	out := cmd.OutOrStdout()
	opts := renderOptions(out)
	opts.Presorted = page.Sort != ""
	return engine.RenderRecords(out, records, format, opts)
}

// addListFlags registers --sort, --limit and --offset.
func addListFlags(cmd *cobra.Command, page *pagination.Params, sortFields []string) {
	cmd.Flags().StringVar(&page.Sort, "sort", "",
		fmt.Sprintf("sort by field[:asc|desc], one of %s", strings.Join(sortFields, ", ")))
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "maximum number of results (0 = all)")
	cmd.Flags().IntVar(&page.Offset, "offset", pagination.DefaultOffset, "number of results to skip")
}

// resolveFormat picks the --output flag or the configured default.
func resolveFormat(flag string) (engine.OutputFormat, error) {
	if flag == "" {
		flag = config.GetDefaultOutputFormat()
	}
	return engine.ParseOutputFormat(flag)
}

// renderOptions styles table output only when writing to a terminal.
func renderOptions(w io.Writer) engine.RenderOptions {
	f, ok := w.(*os.File)
	return engine.RenderOptions{
		Precision: config.GetOutputPrecision(),
		Styled:    ok && isTerminal(f),
	}
}
