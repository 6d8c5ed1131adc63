// Package batch bounds and partitions work for the aggregation engine.
//
// Two tools live here:
//   - Pool is a long-lived weighted semaphore shared by every aggregation in a
//     process. Run submits one unit per item to it and collects outcomes in
//     completion order, recovering panics so one bad unit cannot sink a call.
//   - Processor splits a slice into fixed-size chunks and feeds them to a
//     callback sequentially. The store uses it to keep IN lists under the
//     driver's bind-parameter ceiling.
package batch
