package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/cli/pagination"
	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine"
)

func newProductsCmd() *cobra.Command {
	var (
		output string
		page   pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Per-product emission summaries",
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output format: table, json or ndjson (default from config)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Summarize every product by batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProducts(cmd, output, "", page)
		},
	}
	addListFlags(list, &page, pagination.NewProductSorter().ValidFields())

	show := &cobra.Command{
		Use:     "show <product-id>",
		Short:   "Summarize one product by batch",
		Example: `  carbonledger products show 3f1c9a2e-5d7b-4c1e-9a0f-2b6d8e4c7a11 --output json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(cmd, output, args[0], pagination.Params{})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

// runProducts summarizes all products, or only productID when it is set.
func runProducts(cmd *cobra.Command, output, productID string, page pagination.Params) error {
	format, err := resolveFormat(output)
	if err != nil {
		return err
	}
	if validateErr := page.Validate(); validateErr != nil {
		return validateErr
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, config.GetGlobalConfig(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var summaries []engine.ProductSummary
	if productID == "" {
		summaries, err = a.aggregator.SummarizeProducts(ctx)
	} else {
		var s *engine.ProductSummary
		s, err = a.aggregator.SummarizeProduct(ctx, productID)
		if s != nil {
			summaries = []engine.ProductSummary{*s}
		}
	}
	if err != nil {
		return fmt.Errorf("summarizing products: %w", err)
	}

	summaries, err = pagination.NewProductSorter().SortExpr(summaries, page.Sort)
	if err != nil {
		return err
	}
	summaries, _ = pagination.Window(summaries, page)

	out := cmd.OutOrStdout()
	return engine.RenderSummaries(out, summaries, format, renderOptions(out))
}
