// Package batch splits id lists into fixed-size batches for bulk detail
// queries.
//
// Plain (non-interactive) output cannot rely on per-row bindings, so it loads
// the details of every listed id with `idIn` queries of DefaultBatchSize ids,
// a few at a time. Progress is reported after each batch.
package batch
