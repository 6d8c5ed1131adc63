// Package engine derives emission records from stored invoices and live
// supplier metrics.
//
// An Aggregator loads products, batches and invoices in bulk, fetches each
// invoice's supplier document on a process-wide bounded pool and turns the
// classified, normalized metrics into at most one carbon, one water and one
// energy record per invoice. A failing invoice is logged and skipped; only a
// store failure aborts the call. The same pipeline feeds the per-product
// batch summaries.
package engine
