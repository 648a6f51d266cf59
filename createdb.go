package seqsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/hupe1980/seqsearch/dbstore"
)

// CreateDBConfig describes a sequence database import.
type CreateDBConfig struct {
	// Inputs are FASTA or FASTQ files, optionally gzip compressed. "-" reads
	// standard input.
	Inputs []string
	// OutputDB is the database to create.
	OutputDB string
	// UseIDs keys records by their FASTA identifier instead of a running
	// number starting at 0.
	UseIDs bool

	Compression string
}

// CreateDB imports sequences into a database with one "residues\n" record per
// sequence. It returns the number of records written.
func CreateDB(ctx context.Context, cfg CreateDBConfig, opts ...Option) (int, error) {
	o := applyOptions(opts)
	n, err := createDB(ctx, cfg, o)
	if err != nil {
		o.logger.ErrorContext(ctx, "createdb failed", "output", cfg.OutputDB, "error", err)
	} else {
		o.logger.InfoContext(ctx, "createdb completed", "output", cfg.OutputDB, "sequences", n)
	}
	return n, translateError(err)
}

func createDB(ctx context.Context, cfg CreateDBConfig, o options) (n int, err error) {
	if cfg.OutputDB == "" {
		return 0, fmt.Errorf("%w: output database is required", ErrInvalidConfig)
	}
	if len(cfg.Inputs) == 0 {
		return 0, fmt.Errorf("%w: no input files", ErrInvalidConfig)
	}
	compression, err := dbstore.ParseCompression(cfg.Compression)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	w, err := dbstore.Create(cfg.OutputDB, 1,
		dbstore.WithCompression(compression),
		dbstore.WithCodec(o.codec),
		dbstore.WithIOLimit(ctx, o.controller()),
		dbstore.WithWriterLogger(o.logger.Logger),
	)
	if err != nil {
		return 0, fmt.Errorf("create database: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, w.Abort())
			n = 0
			return
		}
		if cerr := w.Close(); cerr != nil {
			err = cerr
			n = 0
		}
	}()

	seen := make(map[string]struct{})
	var buf []byte
	for _, path := range cfg.Inputs {
		r, err := fastx.NewReader(seq.Unlimit, path, "")
		if err != nil {
			return n, fmt.Errorf("open %s: %w", path, err)
		}
		for {
			if err := ctx.Err(); err != nil {
				r.Close()
				return n, err
			}
			rec, err := r.Read()
			if err != nil {
				r.Close()
				if err == io.EOF {
					break
				}
				return n, fmt.Errorf("read %s: %w", path, err)
			}

			key := strconv.Itoa(n)
			if cfg.UseIDs {
				key = string(rec.ID)
				if _, dup := seen[key]; dup {
					r.Close()
					return n, fmt.Errorf("%w: duplicate sequence id %q in %s", ErrInvalidConfig, key, path)
				}
				seen[key] = struct{}{}
			}

			buf = append(append(buf[:0], rec.Seq.Seq...), '\n')
			if err := w.Write(buf, key, 0); err != nil {
				r.Close()
				return n, fmt.Errorf("%s: %w", key, err)
			}
			n++
			if o.progress != nil && n%10000 == 0 {
				o.progress(n, 0)
			}
		}
	}
	return n, nil
}
