package seqsearch

import (
	"fmt"

	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/engine"
	"github.com/hupe1980/seqsearch/submat"
)

// DefaultMaxAlnNum is the default number of candidates aligned per query.
const DefaultMaxAlnNum = 10

// Config describes one alignment run.
type Config struct {
	// QueryDB, TargetDB and PrefilterDB are input databases. QueryDB and
	// TargetDB may name the same database.
	QueryDB     string
	TargetDB    string
	PrefilterDB string
	// OutputDB is the result database written by the run.
	OutputDB string

	// MatrixFile is an NCBI-format substitution matrix. Empty selects the
	// built-in matrix for SeqType.
	MatrixFile string
	SeqType    string

	EvalThr        float64
	CovThr         float64
	MaxSeqLen      int
	MaxAlnNum      int
	Workers        int
	ChunkSize      int
	OutputCapacity int

	// ZeroHitLog receives one line per query without accepted hits.
	// Empty discards them.
	ZeroHitLog string

	// Compression is "none", "lz4" or "zstd" for the output records.
	Compression string

	// ProfileQueries treats query records as serialized profiles.
	ProfileQueries bool
}

// DefaultConfig returns a Config with default thresholds and no paths.
func DefaultConfig() Config {
	ec := engine.DefaultConfig()
	return Config{
		SeqType:        submat.Amino.String(),
		EvalThr:        ec.EvalThr,
		CovThr:         ec.CovThr,
		MaxSeqLen:      ec.MaxSeqLen,
		MaxAlnNum:      DefaultMaxAlnNum,
		Workers:        ec.Workers,
		ChunkSize:      ec.ChunkSize,
		OutputCapacity: ec.OutputCapacity,
	}
}

// Validate checks paths and parameter ranges.
func (c *Config) Validate() error {
	switch {
	case c.QueryDB == "":
		return fmt.Errorf("%w: query database is required", ErrInvalidConfig)
	case c.TargetDB == "":
		return fmt.Errorf("%w: target database is required", ErrInvalidConfig)
	case c.PrefilterDB == "":
		return fmt.Errorf("%w: prefilter database is required", ErrInvalidConfig)
	case c.OutputDB == "":
		return fmt.Errorf("%w: output database is required", ErrInvalidConfig)
	case c.MaxAlnNum <= 0:
		return fmt.Errorf("%w: max alignments per query must be positive, got %d", ErrInvalidConfig, c.MaxAlnNum)
	}
	if _, err := c.seqType(); err != nil {
		return translateError(err)
	}
	if _, err := dbstore.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	ec := c.engineConfig()
	return translateError(ec.Validate())
}

func (c *Config) seqType() (submat.SeqType, error) {
	if c.SeqType == "" {
		return submat.Amino, nil
	}
	return submat.ParseSeqType(c.SeqType)
}

func (c *Config) engineConfig() engine.Config {
	return engine.Config{
		EvalThr:        c.EvalThr,
		CovThr:         c.CovThr,
		MaxSeqLen:      c.MaxSeqLen,
		Workers:        c.Workers,
		ChunkSize:      c.ChunkSize,
		OutputCapacity: c.OutputCapacity,
	}
}

// loadMatrix returns the matrix from path, or the built-in matrix for t.
func loadMatrix(path string, t submat.SeqType) (*submat.Matrix, error) {
	if path == "" {
		return submat.Default(t), nil
	}
	m, err := submat.Load(path, t)
	if err != nil {
		return nil, translateError(fmt.Errorf("load matrix: %w", err))
	}
	return m, nil
}
