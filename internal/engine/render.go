package engine

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/carbonledger/internal/greenops"
)

// OutputFormat selects how results are written.
type OutputFormat string

// Supported output formats.
const (
	OutputTable  OutputFormat = "table"
	OutputJSON   OutputFormat = "json"
	OutputNDJSON OutputFormat = "ndjson"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseOutputFormat validates s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputTable, OutputJSON, OutputNDJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// RenderOptions tune table output.
type RenderOptions struct {
	// Precision is the number of decimals shown for quantities.
	Precision int

	// Styled enables lipgloss styling of headers and totals.
	Styled bool

	// Presorted keeps the caller's record order instead of sorting the table
	// by product, category and facility.
	Presorted bool
}

const tabwriterPadding = 2

//nolint:gochecknoglobals // Shared read-only styles.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	totalStyle  = lipgloss.NewStyle().Bold(true)
)

func (o RenderOptions) header(s string) string {
	if o.Styled {
		return headerStyle.Render(s)
	}
	return s
}

func (o RenderOptions) total(s string) string {
	if o.Styled {
		return totalStyle.Render(s)
	}
	return s
}

// RenderRecords writes records in the given format. Table output is sorted
// by product, category and facility; JSON output keeps the input order.
func RenderRecords(w io.Writer, records []EmissionRecord, format OutputFormat, opts RenderOptions) error {
	if records == nil {
		records = []EmissionRecord{}
	}
	switch format {
	case OutputJSON:
		return writeJSON(w, records)
	case OutputNDJSON:
		return writeNDJSON(w, records)
	case OutputTable:
		return renderRecordTable(w, records, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// RenderSummaries writes product summaries in the given format.
func RenderSummaries(w io.Writer, summaries []ProductSummary, format OutputFormat, opts RenderOptions) error {
	if summaries == nil {
		summaries = []ProductSummary{}
	}
	switch format {
	case OutputJSON:
		return writeJSON(w, summaries)
	case OutputNDJSON:
		return writeNDJSON(w, summaries)
	case OutputTable:
		return renderSummaryTable(w, summaries, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func renderRecordTable(w io.Writer, records []EmissionRecord, opts RenderOptions) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No emission records.")
		return err
	}

	sorted := records
	if !opts.Presorted {
		sorted = slices.Clone(records)
		slices.SortStableFunc(sorted, func(a, b EmissionRecord) int {
			return cmp.Or(
				cmp.Compare(a.ProductName, b.ProductName),
				cmp.Compare(a.EmissionCategory, b.EmissionCategory),
				cmp.Compare(a.Facility, b.Facility),
			)
		})
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, opts.header("PRODUCT\tSUPPLIER ITEM\tFACILITY\tCATEGORY\tSOURCE\tQUANTITY\tCO2E"))

	var totals greenops.Totals
	for _, r := range sorted {
		switch r.EmissionCategory {
		case CategoryCarbon:
			totals.Carbon += r.Quantity
		case CategoryWater:
			totals.Water += r.Quantity
		case CategoryEnergy:
			totals.Energy += r.Quantity
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ProductName, r.Name, r.Facility, r.EmissionCategory, r.EmissionSource,
			greenops.FormatQuantity(r.Quantity, r.QuantityUnit, opts.Precision),
			greenops.FormatQuantity(r.CO2E, r.CO2EUnit, opts.Precision),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n", opts.total(totalsLine(len(sorted), totals, opts.Precision)))
	return err
}

func renderSummaryTable(w io.Writer, summaries []ProductSummary, opts RenderOptions) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No products.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, opts.header("PRODUCT\tBATCH\tINVOICES\tCARBON\tWATER\tENERGY"))

	var grand greenops.Totals
	batches := 0
	for _, s := range summaries {
		if len(s.Batches) == 0 {
			fmt.Fprintf(tw, "%s\t-\t0\t-\t-\t-\n", s.ProductName)
			continue
		}
		for _, b := range s.Batches {
			batches++
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
				s.ProductName, b.ID, b.Invoices,
				greenops.FormatQuantity(b.CarbonFootprint, greenops.UnitKg, opts.Precision),
				greenops.FormatQuantity(b.WaterUsage, greenops.UnitCubicMeters, opts.Precision),
				greenops.FormatQuantity(b.EnergyConsumption, greenops.UnitKWh, opts.Precision),
			)
		}
		grand.Merge(s.Totals)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	line := fmt.Sprintf("%d products, %d batches | %s", len(summaries), batches, totalsText(grand, opts.Precision))
	_, err := fmt.Fprintf(w, "\n%s\n", opts.total(line))
	return err
}

func totalsLine(n int, t greenops.Totals, precision int) string {
	return fmt.Sprintf("%d records | %s", n, totalsText(t, precision))
}

func totalsText(t greenops.Totals, precision int) string {
	return fmt.Sprintf("Carbon %s, Water %s, Energy %s",
		greenops.FormatQuantity(t.Carbon, greenops.UnitKg, precision),
		greenops.FormatQuantity(t.Water, greenops.UnitCubicMeters, precision),
		greenops.FormatQuantity(t.Energy, greenops.UnitKWh, precision),
	)
}
