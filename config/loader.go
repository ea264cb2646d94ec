package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".tflstatus"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for settings.
const envPrefix = "TFLSTATUS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// FlagKeys maps command line flag names to the settings they override.
var FlagKeys = map[string]string{
	"driver":    "database.driver",
	"dsn":       "database.dsn",
	"secrets":   "database.secrets",
	"root":      "data.root",
	"category":  "data.category",
	"commit":    "ingest.commit",
	"verbose":   "ingest.verbose",
	"mode":      "summary.mode",
	"breakdown": "summary.breakdown",
	"threads":   "summary.threads",
}

// LoadConfig loads configuration from defaults, the config file, env vars and
// the flags of FlagKeys found in flags, each overriding the previous.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := viperCfg.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("database.driver", DefaultDatabaseDriver)
	viperCfg.SetDefault("database.dsn", DefaultDatabaseDSN)
	viperCfg.SetDefault("database.secrets", "")
	viperCfg.SetDefault("database.max_open_conns", 0)

	viperCfg.SetDefault("data.root", DefaultDataRoot)
	viperCfg.SetDefault("data.category", DefaultDataCategory)

	viperCfg.SetDefault("ingest.commit", DefaultIngestCommit)
	viperCfg.SetDefault("ingest.verbose", false)

	viperCfg.SetDefault("summary.mode", DefaultSummaryMode)
	viperCfg.SetDefault("summary.breakdown", false)
	viperCfg.SetDefault("summary.threads", DefaultSummaryThreads)
}
