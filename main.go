package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/gbl08ma/keybox"
	"github.com/gbl08ma/sqalx"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/underlx/tflstatus/config"
	"github.com/underlx/tflstatus/dataobjects"
)

var (
	mainLog    = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	walkerLog  = log.New(os.Stdout, "walker", log.Ldate|log.Ltime)
	ingestLog  = log.New(os.Stdout, "ingest", log.Ldate|log.Ltime)
	configPath string

	// GitCommit is provided by govvv at compile-time
	GitCommit = "???"
	// BuildDate is provided by govvv at compile-time
	BuildDate = "???"
)

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tflstatus",
		Short: "Line status snapshot ingestion and disruption statistics",
		Long: `tflstatus loads periodic line status snapshots into a relational store
and answers questions about how often lines were disrupted.

Commands:
  ingest        Load the snapshot archives under the data root
  summary       Show disruption statistics per line
  count         Count the observations matching a filter
  observations  List the observations matching a filter`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default .tflstatus.yaml in the working or home directory)")
	flags.String("driver", "", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database connection string")
	flags.String("secrets", "", "keybox file holding the databaseURI for postgres")

	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newCountCommand())
	rootCmd.AddCommand(newObservationsCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadConfig(configPath, cmd.Flags())
}

// loadStoreConfig is like loadConfig but only honours the flags shared by
// every command, for commands whose own flags mean something else
func loadStoreConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadConfig(configPath, cmd.InheritedFlags())
}

// openDatabase opens the store described by cfg, creating the schema if needed
func openDatabase(cfg *config.Config) (*sqlx.DB, sqalx.Node, error) {
	dsn := cfg.Database.DSN
	dialect := dataobjects.Dialect(cfg.Database.Driver)
	if dialect == dataobjects.Postgres && cfg.Database.Secrets != "" {
		secrets, err := keybox.Open(cfg.Database.Secrets)
		if err != nil {
			return nil, nil, err
		}
		databaseURI, present := secrets.Get("databaseURI")
		if !present {
			return nil, nil, errors.New("Database connection string not present in keybox")
		}
		dsn = databaseURI
	}

	maxOpenConns := cfg.Database.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = MaxDBconnectionPoolSize
	}

	rdb, rootSqalxNode, err := dataobjects.Open(dialect, dsn, maxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	if err := dataobjects.EnsureSchema(rootSqalxNode); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return rdb, rootSqalxNode, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tflstatus (commit: %s, built: %s)\n", GitCommit, BuildDate)
		},
	}
}
