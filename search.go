package seqsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/engine"
)

// Search verifies the prefilter candidates in cfg.PrefilterDB and writes one
// result record per query to cfg.OutputDB.
func Search(ctx context.Context, cfg Config, opts ...Option) (engine.Stats, error) {
	o := applyOptions(opts)

	stats, err := search(ctx, cfg, o)
	o.logger.LogRun(ctx, stats, err)
	return stats, translateError(err)
}

func search(ctx context.Context, cfg Config, o options) (_ engine.Stats, err error) {
	if err := cfg.Validate(); err != nil {
		return engine.Stats{}, err
	}
	seqType, _ := cfg.seqType()
	compression, _ := dbstore.ParseCompression(cfg.Compression)

	matrix, err := loadMatrix(cfg.MatrixFile, seqType)
	if err != nil {
		return engine.Stats{}, err
	}

	logger := o.logger.Logger
	rc := o.controller()

	// Stores opened so far; closed here until the engine takes them over.
	var opened []io.Closer
	defer func() {
		if err != nil {
			for i := len(opened) - 1; i >= 0; i-- {
				_ = opened[i].Close()
			}
		}
	}()

	openDB := func(name, path string) (*dbstore.Reader, error) {
		r, err := dbstore.Open(path, dbstore.WithReaderLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", name, err)
		}
		opened = append(opened, r)
		return r, nil
	}

	targets, err := openDB("target", cfg.TargetDB)
	if err != nil {
		return engine.Stats{}, err
	}
	queries := targets
	if cfg.QueryDB != cfg.TargetDB {
		if queries, err = openDB("query", cfg.QueryDB); err != nil {
			return engine.Stats{}, err
		}
	}
	prefilter, err := openDB("prefilter", cfg.PrefilterDB)
	if err != nil {
		return engine.Stats{}, err
	}

	ec := cfg.engineConfig()
	if err := ec.Validate(); err != nil {
		return engine.Stats{}, err
	}

	results, err := dbstore.Create(cfg.OutputDB, ec.Workers,
		dbstore.WithCompression(compression),
		dbstore.WithCodec(o.codec),
		dbstore.WithIOLimit(ctx, rc),
		dbstore.WithWriterLogger(logger),
	)
	if err != nil {
		return engine.Stats{}, fmt.Errorf("create output database: %w", err)
	}
	opened = append(opened, closerFunc(results.Abort))

	var zeroHit io.Writer
	if cfg.ZeroHitLog != "" {
		f, ferr := os.Create(cfg.ZeroHitLog)
		if ferr != nil {
			return engine.Stats{}, fmt.Errorf("create zero-hit log: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close zero-hit log: %w", cerr))
			}
		}()
		zeroHit = f
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithZeroHitLog(zeroHit),
		engine.WithProgress(o.progress),
		engine.WithResourceController(rc),
	}
	if m := o.observer(); m != nil {
		engineOpts = append(engineOpts, engine.WithMetricsObserver(m))
	}
	if cfg.ProfileQueries {
		engineOpts = append(engineOpts, engine.WithProfileQueries())
	}

	e, err := engine.New(ec, queries, targets, prefilter, results, matrix, engineOpts...)
	if err != nil {
		return engine.Stats{}, err
	}
	opened = nil

	return e.Run(ctx, cfg.MaxAlnNum)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
