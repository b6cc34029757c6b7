// Package scheduler owns the job queue and drives it one tick at a time.
//
// A tick (Run) walks the queue with background-eligible jobs first, runs each
// due job through job.Run and sorts the outcome into the executed or failed
// list. A failing job never stops the tick. Dispatch is sequential; the only
// concurrency comes from shell jobs that detach themselves.
//
// Outcomes are also written to a human-readable verbose log, an optional
// run Recorder and an optional event bus.
package scheduler
