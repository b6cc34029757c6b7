// Package job implements a single schedulable unit of work and its lifecycle:
// configuration, due check, compilation into a directive, execution and
// finalisation (output sinks, email, after hook).
//
// A Job is owned by one goroutine at a time. The Scheduler dispatches jobs
// sequentially, so no internal locking is done here.
//
// Overlap prevention uses advisory lock files: presence plus modification time
// are checked before the lock is written. Two processes racing between the
// check and the write can both run. This is best-effort exclusion, not a mutex.
package job
