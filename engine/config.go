package engine

import "fmt"

// Defaults for Config.
const (
	DefaultEvalThr        = 0.001
	DefaultCovThr         = 0.8
	DefaultMaxSeqLen      = 50000
	DefaultWorkers        = 1
	DefaultChunkSize      = 10
	DefaultOutputCapacity = 10_000_000
)

// Config holds the acceptance thresholds and run parameters.
type Config struct {
	// EvalThr is the maximum accepted e-value.
	EvalThr float64
	// CovThr is the minimum query and target coverage, and the minimum
	// length ratio for a pair to be aligned at all.
	CovThr float64
	// MaxSeqLen sizes the initial per-worker sequence and DP buffers.
	MaxSeqLen int
	// Workers is the number of worker goroutines.
	Workers int
	// ChunkSize is the number of queries a worker claims at once.
	ChunkSize int
	// OutputCapacity bounds the serialized hits of one query in bytes.
	OutputCapacity int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		EvalThr:        DefaultEvalThr,
		CovThr:         DefaultCovThr,
		MaxSeqLen:      DefaultMaxSeqLen,
		Workers:        DefaultWorkers,
		ChunkSize:      DefaultChunkSize,
		OutputCapacity: DefaultOutputCapacity,
	}
}

// Validate checks parameter ranges. Zero Workers, ChunkSize and
// OutputCapacity are replaced by their defaults.
func (c *Config) Validate() error {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.OutputCapacity == 0 {
		c.OutputCapacity = DefaultOutputCapacity
	}

	switch {
	case !(c.EvalThr >= 0):
		return fmt.Errorf("%w: eval threshold must be >= 0, got %g", ErrInvalidConfig, c.EvalThr)
	case !(c.CovThr >= 0 && c.CovThr <= 1):
		return fmt.Errorf("%w: coverage threshold must be in [0,1], got %g", ErrInvalidConfig, c.CovThr)
	case c.MaxSeqLen < 0:
		return fmt.Errorf("%w: max sequence length must be >= 0, got %d", ErrInvalidConfig, c.MaxSeqLen)
	case c.Workers < 0:
		return fmt.Errorf("%w: worker count must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.ChunkSize < 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	case c.OutputCapacity < 0:
		return fmt.Errorf("%w: output capacity must be positive, got %d", ErrInvalidConfig, c.OutputCapacity)
	}
	return nil
}
