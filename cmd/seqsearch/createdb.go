package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/seqsearch"
)

func newCreateDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createdb <in.fasta[.gz]> [more.fasta ...] <outDB>",
		Short: "Import FASTA/FASTQ sequences into a database",
		Long: `Import FASTA/FASTQ sequences into a database

Each sequence becomes one "residues\n" record. Records are keyed by a running
number starting at 0, or by the sequence identifier with --use-ids.
Gzip-compressed input and "-" for stdin are supported.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			common, err := getCommonOptions(cmd)
			if err != nil {
				return err
			}
			useIDs, _ := cmd.Flags().GetBool("use-ids")

			n, err := seqsearch.CreateDB(cmd.Context(), seqsearch.CreateDBConfig{
				Inputs:      args[:len(args)-1],
				OutputDB:    args[len(args)-1],
				UseIDs:      useIDs,
				Compression: common.compression,
			}, common.options()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s sequences written to %s\n", humanize.Comma(int64(n)), args[len(args)-1])
			return nil
		},
	}

	cmd.Flags().Bool("use-ids", false, "Key records by sequence identifier instead of a running number.")
	return cmd
}
