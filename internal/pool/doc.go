// Package pool provides a fixed goroutine pool for independent tasks and
// sync.Pool backed scratch buffers for record (de)compression.
package pool
