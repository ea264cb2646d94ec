package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/underlx/tflstatus/ingest"
	"github.com/underlx/tflstatus/snapshot"
)

func newIngestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the snapshot archives under the data root into the store",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().String("root", "", "data root, holding one directory per category")
	cmd.Flags().String("category", "", "category to ingest")
	cmd.Flags().String("commit", "", "commit once per snapshot or once per observation")
	cmd.Flags().Bool("verbose", false, "log every archive as it is decoded")
	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := ingest.ParseCommitPolicy(cfg.Ingest.Commit)
	if err != nil {
		return err
	}

	rdb, rootSqalxNode, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	walker, err := snapshot.NewWalker(cfg.Data.Root, cfg.Data.Category, walkerLog)
	if err != nil {
		return err
	}
	walker.Verbose = DEBUG || cfg.Ingest.Verbose

	mainLog.Printf("Ingesting %s from %s, committing once per %s", cfg.Data.Category, cfg.Data.Root, policy)
	writer := ingest.NewWriter(rootSqalxNode, ingest.NewLineCache(), policy, ingestLog)
	report, err := ingest.Run(walker, writer)
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return err
}
