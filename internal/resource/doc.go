// Package resource implements process-wide limits for the alignment run.
//
// Two resources are governed:
//
//   - Memory: per-worker output buffers reserve their capacity before they
//     grow. AcquireMemory never blocks; it fails fast with
//     ErrMemoryLimitExceeded so the run aborts with a clear cause.
//   - IO: result writers wait on a token bucket before appending bytes, so a
//     verification run sharing a disk with other jobs can be throttled.
//
// A nil *Controller is valid and imposes no limits.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   2 << 30,
//	    IOLimitBytesPerSec: 200 << 20,
//	})
package resource
