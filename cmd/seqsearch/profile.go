package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/seqsearch"
	"github.com/hupe1980/seqsearch/profile"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <msa> [more.msa ...] <outDB>",
		Short: "Build PSSM profiles from multiple sequence alignments",
		Long: `Build PSSM profiles from multiple sequence alignments

Every input file holds one alignment whose first sequence is the reference.
Aligned FASTA files must have rows of equal width; columns with a gap in the
reference are dropped. A3M files (".a3m" or --format a3m) mark insertions
with lowercase letters and '.'.

Profiles are keyed by the identifier of the reference sequence and can be
searched with "seqsearch align --profile-queries".`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			common, err := getCommonOptions(cmd)
			if err != nil {
				return err
			}
			cfg, err := profileConfig(cmd, args, common)
			if err != nil {
				return err
			}

			opts := common.options()
			var bar *progressBar
			if !common.quiet {
				bar = newProgressBar("profiles:", cmd.ErrOrStderr())
				opts = append(opts, seqsearch.WithProgress(bar.Update))
			}

			n, err := seqsearch.BuildProfiles(cmd.Context(), cfg, opts...)
			if bar != nil {
				bar.Finish(err == nil)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s profiles written to %s\n", humanize.Comma(int64(n)), cfg.OutputDB)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("matrix", "", "NCBI-format substitution matrix (default: built-in BLOSUM62 or nucleotide matrix).")
	flags.String("seq-type", "amino", `Sequence type: "amino" or "nucleotide".`)
	flags.String("format", "auto", `Alignment format: "auto", "fasta" or "a3m".`)
	flags.Float64("pca", profile.DefaultPCA, "Pseudocount admixture parameter a.")
	flags.Float64("pcb", profile.DefaultPCB, "Pseudocount admixture parameter b.")
	flags.Float64("score-bias", 0, "Constant added to every PSSM score.")
	flags.Bool("local-weights", false, "Recompute sequence weights per column instead of using global weights.")

	return cmd
}

func profileConfig(cmd *cobra.Command, args []string, common commonOptions) (seqsearch.ProfileConfig, error) {
	flags := cmd.Flags()

	formatName, _ := flags.GetString("format")
	format, err := seqsearch.ParseMSAFormat(formatName)
	if err != nil {
		return seqsearch.ProfileConfig{}, err
	}

	cfg := seqsearch.ProfileConfig{
		MSAFiles:    args[:len(args)-1],
		OutputDB:    args[len(args)-1],
		Format:      format,
		Workers:     common.threads,
		Compression: common.compression,
	}
	cfg.MatrixFile, _ = flags.GetString("matrix")
	cfg.SeqType, _ = flags.GetString("seq-type")
	cfg.PCA, _ = flags.GetFloat64("pca")
	cfg.PCB, _ = flags.GetFloat64("pcb")
	cfg.ScoreBias, _ = flags.GetFloat64("score-bias")
	cfg.LocalWeights, _ = flags.GetBool("local-weights")

	return cfg, nil
}
