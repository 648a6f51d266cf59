package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/seqsearch"
	"github.com/hupe1980/seqsearch/engine"
	"github.com/hupe1980/seqsearch/prommetrics"
)

func newAlignCmd() *cobra.Command {
	def := seqsearch.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "align <queryDB> <targetDB> <prefilterDB> <outDB>",
		Short: "Verify prefilter candidates with Smith-Waterman alignments",
		Long: `Verify prefilter candidates with Smith-Waterman alignments

For every query of the prefilter database, the first --max-aln-num candidates
are aligned against the query. A hit is accepted when its e-value is at most
--e-value and both query and target coverage are at least --coverage. Pairs
whose length ratio is below --coverage are not aligned.

Output: one record per query with one line per accepted hit, best first:

    targetKey  score  qcov  dbcov  seqId  eval`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			common, err := getCommonOptions(cmd)
			if err != nil {
				return err
			}
			cfg, err := alignConfig(cmd, args, common)
			if err != nil {
				return err
			}
			memLimit, err := parseBytesFlag(cmd, "memory-limit")
			if err != nil {
				return err
			}

			opts := append(common.options(), seqsearch.WithMemoryLimit(memLimit))

			addr, _ := cmd.Flags().GetString("metrics-addr")
			if addr != "" {
				obs, shutdown, err := serveMetrics(cmd.Context(), addr, common)
				if err != nil {
					return err
				}
				defer shutdown()
				opts = append(opts, seqsearch.WithMetricsObserver(obs))
			}

			var bar *progressBar
			if !common.quiet {
				bar = newProgressBar("aligned queries:", cmd.ErrOrStderr())
				opts = append(opts, seqsearch.WithProgress(bar.Update))
			}

			stats, err := seqsearch.Search(cmd.Context(), cfg, opts...)
			if bar != nil {
				bar.Finish(err == nil)
			}
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("matrix", "", "NCBI-format substitution matrix (default: built-in BLOSUM62 or nucleotide matrix).")
	flags.String("seq-type", def.SeqType, `Sequence type: "amino" or "nucleotide".`)
	flags.Float64P("e-value", "e", def.EvalThr, "Maximum accepted e-value.")
	flags.Float64P("coverage", "c", def.CovThr, "Minimum query and target coverage, and minimum length ratio.")
	flags.Int("max-seq-len", def.MaxSeqLen, "Initial per-worker sequence buffer length.")
	flags.Int("max-aln-num", def.MaxAlnNum, "Maximum number of candidates aligned per query.")
	flags.Int("chunk-size", def.ChunkSize, "Number of queries a worker claims at once.")
	flags.Int("output-capacity", def.OutputCapacity, "Maximum size of one query's result record in bytes.")
	flags.String("zero-hit-log", "", "Write one line per query without accepted hits to this file.")
	flags.Bool("profile-queries", false, "Query records are profiles written by \"seqsearch profile\".")
	flags.String("memory-limit", "", `Memory budget for result buffers, e.g. "4GiB" (empty for unlimited).`)
	flags.String("metrics-addr", "", `Serve Prometheus metrics on this address during the run, e.g. ":9090".`)

	return cmd
}

func alignConfig(cmd *cobra.Command, args []string, common commonOptions) (seqsearch.Config, error) {
	flags := cmd.Flags()

	cfg := seqsearch.DefaultConfig()
	cfg.QueryDB, cfg.TargetDB, cfg.PrefilterDB, cfg.OutputDB = args[0], args[1], args[2], args[3]
	cfg.MatrixFile, _ = flags.GetString("matrix")
	cfg.SeqType, _ = flags.GetString("seq-type")
	cfg.EvalThr, _ = flags.GetFloat64("e-value")
	cfg.CovThr, _ = flags.GetFloat64("coverage")
	cfg.MaxSeqLen, _ = flags.GetInt("max-seq-len")
	cfg.MaxAlnNum, _ = flags.GetInt("max-aln-num")
	cfg.ChunkSize, _ = flags.GetInt("chunk-size")
	cfg.OutputCapacity, _ = flags.GetInt("output-capacity")
	cfg.ZeroHitLog, _ = flags.GetString("zero-hit-log")
	cfg.ProfileQueries, _ = flags.GetBool("profile-queries")
	cfg.Workers = common.threads
	cfg.Compression = common.compression

	return cfg, cfg.Validate()
}

// serveMetrics starts a Prometheus endpoint backed by a private registry.
func serveMetrics(ctx context.Context, addr string, common commonOptions) (*prommetrics.Observer, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs, err := prommetrics.New(reg)
	if err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.logger.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()
	common.logger.InfoContext(ctx, "serving metrics", "addr", ln.Addr().String())

	return obs, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}, nil
}

func printSummary(w io.Writer, s engine.Stats) {
	fmt.Fprintf(w, "queries:           %s\n", humanize.Comma(int64(s.Queries)))
	fmt.Fprintf(w, "candidates:        %s\n", humanize.Comma(int64(s.Candidates)))
	fmt.Fprintf(w, "alignments:        %s\n", humanize.Comma(int64(s.Attempted)))
	fmt.Fprintf(w, "accepted hits:     %s (%.1f%%, %.2f per query)\n",
		humanize.Comma(int64(s.Passed)), 100*s.PassRate(), s.HitsPerQuery())
	fmt.Fprintf(w, "rejected:          length ratio %s, e-value %s, qcov %s, dbcov %s\n",
		humanize.Comma(int64(s.Rejections.LengthRatio)),
		humanize.Comma(int64(s.Rejections.Eval)),
		humanize.Comma(int64(s.Rejections.QCov)),
		humanize.Comma(int64(s.Rejections.DBCov)))
	fmt.Fprintf(w, "queries w/o hits:  %s\n", humanize.Comma(int64(s.ZeroHitQueries)))
	fmt.Fprintf(w, "elapsed:           %s\n", s.Duration.Round(time.Millisecond))
}
