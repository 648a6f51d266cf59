package seqsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/profile"
	"github.com/hupe1980/seqsearch/submat"
)

// MSAFormat selects how alignment rows are interpreted.
type MSAFormat string

const (
	// FormatAuto picks A3M for ".a3m" files and aligned FASTA otherwise.
	FormatAuto MSAFormat = ""
	// FormatFASTA is aligned FASTA: all rows have the same width and columns
	// with a gap in the first row are dropped.
	FormatFASTA MSAFormat = "fasta"
	// FormatA3M is A3M: lowercase letters and '.' are insertions.
	FormatA3M MSAFormat = "a3m"
)

// ParseMSAFormat parses "", "auto", "fasta" or "a3m".
func ParseMSAFormat(s string) (MSAFormat, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "fasta", "afa":
		return FormatFASTA, nil
	case "a3m":
		return FormatA3M, nil
	default:
		return "", fmt.Errorf("%w: unknown MSA format %q", ErrInvalidConfig, s)
	}
}

func (f MSAFormat) resolve(path string) MSAFormat {
	if f != FormatAuto {
		return f
	}
	if strings.EqualFold(filepath.Ext(path), ".a3m") {
		return FormatA3M
	}
	return FormatFASTA
}

// LoadMSA reads an alignment file. The returned key is the identifier of the
// first record, or the file name without extension when it has none.
func LoadMSA(path string, m *submat.Matrix, format MSAFormat) (string, *profile.MSA, error) {
	r, err := fastx.NewReader(seq.Unlimit, path, "")
	if err != nil {
		return "", nil, fmt.Errorf("open msa %s: %w", path, err)
	}
	defer r.Close()

	var (
		key  string
		rows [][]byte
	)
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", nil, fmt.Errorf("read msa %s: %w", path, err)
		}
		if len(rows) == 0 {
			key = string(rec.ID)
		}
		rows = append(rows, bytes.Clone(rec.Seq.Seq))
	}
	if key == "" {
		key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var msa *profile.MSA
	switch format.resolve(path) {
	case FormatA3M:
		msa, err = profile.NewA3M(rows, m)
	default:
		msa, err = profile.NewMSA(rows, m)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return key, msa, nil
}

// ProfileConfig describes a profile build.
type ProfileConfig struct {
	// MSAFiles are the input alignments, one profile each.
	MSAFiles []string
	// OutputDB receives one serialized profile per alignment.
	OutputDB string

	MatrixFile string
	SeqType    string
	Format     MSAFormat

	// PCA and PCB are the pseudocount admixture parameters. Zero selects
	// the defaults.
	PCA float64
	PCB float64

	ScoreBias float64

	// LocalWeights recomputes sequence weights per column on the sequences
	// covering it instead of using global weights.
	LocalWeights bool

	Workers     int
	Compression string
}

func (c *ProfileConfig) builderOptions() []profile.Option {
	pca, pcb := c.PCA, c.PCB
	if pca == 0 {
		pca = profile.DefaultPCA
	}
	if pcb == 0 {
		pcb = profile.DefaultPCB
	}
	return []profile.Option{
		profile.WithPseudocounts(pca, pcb),
		profile.WithScoreBias(c.ScoreBias),
		profile.WithGlobalWeights(!c.LocalWeights),
	}
}

// BuildProfile builds a single profile from an alignment file.
func BuildProfile(path string, cfg ProfileConfig) (*profile.Profile, error) {
	t, err := parseSeqType(cfg.SeqType)
	if err != nil {
		return nil, err
	}
	m, err := loadMatrix(cfg.MatrixFile, t)
	if err != nil {
		return nil, err
	}
	_, msa, err := LoadMSA(path, m, cfg.Format)
	if err != nil {
		return nil, translateError(err)
	}
	b, err := profile.NewBuilder(m, cfg.builderOptions()...)
	if err != nil {
		return nil, translateError(err)
	}
	p, err := b.Build(msa)
	return p, translateError(err)
}

// BuildProfiles builds a profile for every file in cfg.MSAFiles in parallel
// and stores them in cfg.OutputDB keyed by the first record identifier of
// each alignment. It returns the number of profiles written.
func BuildProfiles(ctx context.Context, cfg ProfileConfig, opts ...Option) (int, error) {
	o := applyOptions(opts)
	n, err := buildProfiles(ctx, cfg, o)
	return n, translateError(err)
}

func buildProfiles(ctx context.Context, cfg ProfileConfig, o options) (int, error) {
	if cfg.OutputDB == "" {
		return 0, fmt.Errorf("%w: output database is required", ErrInvalidConfig)
	}
	if len(cfg.MSAFiles) == 0 {
		return 0, fmt.Errorf("%w: no alignment files", ErrInvalidConfig)
	}
	t, err := parseSeqType(cfg.SeqType)
	if err != nil {
		return 0, err
	}
	compression, err := dbstore.ParseCompression(cfg.Compression)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	m, err := loadMatrix(cfg.MatrixFile, t)
	if err != nil {
		return 0, err
	}

	keys := make([]string, len(cfg.MSAFiles))
	msas := make([]*profile.MSA, len(cfg.MSAFiles))
	seen := make(map[string]string, len(cfg.MSAFiles))
	for i, path := range cfg.MSAFiles {
		key, msa, err := LoadMSA(path, m, cfg.Format)
		if err != nil {
			return 0, err
		}
		if prev, ok := seen[key]; ok {
			return 0, fmt.Errorf("%w: duplicate profile key %q in %s and %s", ErrInvalidConfig, key, prev, path)
		}
		seen[key] = path
		keys[i], msas[i] = key, msa
		if o.progress != nil {
			o.progress(i+1, 2*len(msas))
		}
	}

	bopts := cfg.builderOptions()
	profiles, err := profile.BuildAll(ctx, func() (*profile.Builder, error) {
		return profile.NewBuilder(m, bopts...)
	}, msas, cfg.Workers)
	if err != nil {
		o.logger.LogProfile(ctx, "", 0, err)
		return 0, err
	}

	w, err := dbstore.Create(cfg.OutputDB, 1,
		dbstore.WithCompression(compression),
		dbstore.WithCodec(o.codec),
		dbstore.WithIOLimit(ctx, o.controller()),
		dbstore.WithWriterLogger(o.logger.Logger),
	)
	if err != nil {
		return 0, fmt.Errorf("create profile database: %w", err)
	}

	for i, p := range profiles {
		data, err := p.MarshalBinary()
		if err == nil {
			err = w.Write(data, keys[i], 0)
		}
		o.logger.LogProfile(ctx, keys[i], p.Len(), err)
		if err != nil {
			return 0, errors.Join(err, w.Abort())
		}
		if o.progress != nil {
			o.progress(len(msas)+i+1, 2*len(msas))
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return len(profiles), nil
}

func parseSeqType(s string) (submat.SeqType, error) {
	if s == "" {
		return submat.Amino, nil
	}
	t, err := submat.ParseSeqType(s)
	return t, translateError(err)
}
