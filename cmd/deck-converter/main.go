// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deck-converter CLI: an HTTP
// service and command line tool converting PDF documents to PowerPoint
// presentations and back.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deck-converter/internal/convert"
	"github.com/pdiddy/deck-converter/internal/events"
	"github.com/pdiddy/deck-converter/internal/secrets"
	"github.com/pdiddy/deck-converter/internal/server"
	"github.com/pdiddy/deck-converter/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the effective configuration, loaded before every command runs.
var cfg types.Config

// log is shared by every command.
var log = logrus.New()

// rootCmd is the base command for the deck-converter CLI.
var rootCmd = &cobra.Command{
	Use:   "deck-converter",
	Short: "Convert PDF documents to PowerPoint presentations and back",
	Long: `deck-converter converts PDF documents into PowerPoint (PPTX) presentations
and PowerPoint presentations into PDF documents.

Run "deck-converter serve" for the HTTP service, or "deck-converter convert"
to convert a file from the command line, locally or through a running server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}
		if err := setupLogging(cfg.Log); err != nil {
			return err
		}
		if f := viper.ConfigFileUsed(); f != "" {
			log.WithField("file", f).Debug("Using config file.")
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, log)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.WithField("keys", keys).Debug("Loaded secrets.")
		}
		secrets.ApplyStorage(&cfg.Storage, s)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deck-converter.yaml or ~/.config/deck-converter/deck-converter.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deck-converter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deck-converter"))
		}
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// bindEnv maps DECK_CONVERTER_SECTION_KEY variables onto section.key and
// honours the conventional PORT variable.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DECK_CONVERTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("server.port", "DECK_CONVERTER_SERVER_PORT", "PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", server.DefaultPort)
	v.SetDefault("server.max_upload_size", server.DefaultMaxUploadSize)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.read_timeout", 5*time.Minute)
	v.SetDefault("server.write_timeout", 15*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("conversion.temp_dir", "")
	v.SetDefault("conversion.timeout", time.Duration(0))
	v.SetDefault("conversion.dpi", convert.DefaultDPI)

	v.SetDefault("office.binaries", []string{"libreoffice", "soffice"})
	v.SetDefault("office.container_image", "")
	v.SetDefault("office.profile_dir", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("history.path", filepath.Join(".deck-converter", "history.db"))

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.create_bucket", false)

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", events.DefaultTopic)
}

func setupLogging(conf types.LogConfig) error {
	level, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", conf.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch conf.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unsupported log format %q: use text or json", conf.Format)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
