package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"eigend/internal/config"
)

// flags holds the command line overrides shared by the subcommands.
type flags struct {
	configPath     string
	envFile        string
	addr           string
	dataDir        string
	modelsDir      string
	llamaBin       string
	logLevel       string
	pretty         bool
	bundledCatalog string
	turnTimeout    time.Duration
	llamaArgs      []string
	inMemory       bool
}

func buildRootCmd() *cobra.Command { return buildRootCmdWith(&flags{}) }

func buildRootCmdWith(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:           "eigend",
		Short:         "Local assistant daemon driving llama-server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to a YAML, TOML or JSON config file")
	pf.StringVar(&f.envFile, "env-file", ".env", "Dotenv file loaded before reading EIGEND_* variables")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&f.pretty, "pretty", false, "Human readable console logs instead of JSON")

	serve := newServeCmd(f)
	sf := serve.Flags()
	sf.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. 127.0.0.1:7878")
	sf.StringVar(&f.dataDir, "data-dir", "", "Directory for settings, catalog and chat history")
	sf.StringVar(&f.modelsDir, "models-dir", "", "Directory holding downloaded models")
	sf.StringVar(&f.llamaBin, "llama-bin", "", "Path or name of the llama-server binary")
	sf.StringVar(&f.bundledCatalog, "bundled-catalog", "", "Catalog copied to the data dir on first start")
	sf.DurationVar(&f.turnTimeout, "turn-timeout", 0, "Upper bound for one chat turn request (0 disables)")
	sf.StringArrayVar(&f.llamaArgs, "llama-arg", nil, "Extra argument passed to llama-server (repeatable)")
	sf.BoolVar(&f.inMemory, "in-memory", false, "Keep chat history in memory only")

	root.AddCommand(serve, newVersionCmd())
	return root
}

// resolveConfig layers the config file, the environment and explicit flags
// over the built-in defaults, in that order.
func resolveConfig(cmd *cobra.Command, f *flags, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", f.configPath, err)
		}
		cfg = loaded
	}
	cfg, err := cfg.ApplyEnv(getenv)
	if err != nil {
		return cfg, err
	}
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("addr", &cfg.Addr, f.addr)
	set("data-dir", &cfg.DataDir, f.dataDir)
	set("models-dir", &cfg.ModelsDir, f.modelsDir)
	set("llama-bin", &cfg.LlamaBin, f.llamaBin)
	set("log-level", &cfg.LogLevel, f.logLevel)
	return cfg.WithDefaults()
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "eigend").Logger()
}
