// Package pagination provides sorting and windowing for CLI list output.
//
// This package contains the list logic shared by the emissions and products
// commands:
//   - Params: --sort, --limit and --offset parsing and validation
//   - Meta: what the window covers, for callers that report it
//   - Sorter: field-validated sorting of emission records and product summaries
package pagination
