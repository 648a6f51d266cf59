package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/seqsearch"
)

// version is set at build time.
var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seqsearch",
		Short: "Alignment verification and profile building for sequence searches",
		Long: `seqsearch verifies prefilter candidates with full Smith-Waterman
alignments and builds position-specific scoring profiles from multiple
sequence alignments.

Databases are a data file plus a "<data>.index" file with one
"key<TAB>offset<TAB>length" line per NUL-terminated record.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug messages.")
	cmd.PersistentFlags().IntP("threads", "j", 1, fmt.Sprintf("Number of worker goroutines (this machine has %d CPUs).", runtime.NumCPU()))
	cmd.PersistentFlags().String("compression", "none", `Record compression of written databases: "none", "lz4" or "zstd".`)
	cmd.PersistentFlags().String("io-limit", "", `Write throughput limit, e.g. "200MB" (empty for unlimited).`)
	cmd.PersistentFlags().Bool("quiet", false, "Do not show a progress bar.")

	cmd.AddCommand(
		newCreateDBCmd(),
		newAlignCmd(),
		newProfileCmd(),
		newPublishCmd(),
	)
	return cmd
}

// commonOptions holds the persistent flags shared by every subcommand.
type commonOptions struct {
	logger      *seqsearch.Logger
	threads     int
	compression string
	ioLimit     int64
	quiet       bool
}

func getCommonOptions(cmd *cobra.Command) (commonOptions, error) {
	flags := cmd.Flags()

	verbose, _ := flags.GetBool("verbose")
	threads, _ := flags.GetInt("threads")
	compression, _ := flags.GetString("compression")
	quiet, _ := flags.GetBool("quiet")

	if threads <= 0 {
		return commonOptions{}, fmt.Errorf("--threads must be positive, got %d", threads)
	}
	ioLimit, err := parseBytesFlag(cmd, "io-limit")
	if err != nil {
		return commonOptions{}, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return commonOptions{
		logger:      seqsearch.NewTextLogger(level),
		threads:     threads,
		compression: compression,
		ioLimit:     ioLimit,
		quiet:       quiet,
	}, nil
}

func (o commonOptions) options() []seqsearch.Option {
	return []seqsearch.Option{
		seqsearch.WithLogger(o.logger),
		seqsearch.WithIOLimit(o.ioLimit),
	}
}

// parseBytesFlag parses a human-readable size such as "512MiB". Empty is 0.
func parseBytesFlag(cmd *cobra.Command, name string) (int64, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return int64(n), nil
}
