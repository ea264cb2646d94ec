package config

import (
	"github.com/go-playground/validator/v10"
)

// Default values for settings not given in any other source.
const (
	DefaultDatabaseDriver = "sqlite"
	DefaultDatabaseDSN    = "tflstatus.db"
	DefaultDataRoot       = "."
	DefaultDataCategory   = "lines"
	DefaultIngestCommit   = "snapshot"
	DefaultSummaryMode    = "tube"
	DefaultSummaryThreads = 1
)

// Config holds the settings of every command.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Data     DataConfig     `mapstructure:"data" yaml:"data"`
	Ingest   IngestConfig   `mapstructure:"ingest" yaml:"ingest"`
	Summary  SummaryConfig  `mapstructure:"summary" yaml:"summary"`
}

// DatabaseConfig selects the store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	// Secrets is a keybox file whose databaseURI entry, when present,
	// replaces DSN for postgres
	Secrets      string `mapstructure:"secrets" yaml:"secrets,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
}

// DataConfig locates the snapshot archives.
type DataConfig struct {
	Root     string `mapstructure:"root" yaml:"root" validate:"required"`
	Category string `mapstructure:"category" yaml:"category" validate:"oneof=air_quality bikes charge_connectors lines"`
}

// IngestConfig tunes the ingestion writer.
type IngestConfig struct {
	Commit  string `mapstructure:"commit" yaml:"commit" validate:"oneof=snapshot observation"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// SummaryConfig tunes the disruption summary.
type SummaryConfig struct {
	Mode      string `mapstructure:"mode" yaml:"mode"`
	Breakdown bool   `mapstructure:"breakdown" yaml:"breakdown"`
	Threads   int    `mapstructure:"threads" yaml:"threads" validate:"gte=1"`
}

// Validate checks every setting against its constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
