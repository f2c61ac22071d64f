// Package pipeline runs an enrichment as a sequence of steps.
//
// A run loads crawled setlist events, freezes the mentions they contain,
// scans a markup dump for pages describing those mentions, joins the
// accepted pages back onto the events and stores the result. Each stage is
// a Step that receives the shared model.Run and fills in its part.
//
// Design decision: We keep the stages as separate steps rather than one
// function because the CLI runs different subsets of them (resolve skips
// the event loading and the join) and because the pipeline gives every
// stage the same cancellation, logging and error recording.
//
// Page resolution inside a step is concurrent. BatchProcessor bounds the
// number of pages in flight with errgroup and hands results back in dump
// order, so "first page wins" deduplication does not depend on scheduling.
package pipeline
