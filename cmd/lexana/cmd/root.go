package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/msto63/lexana/internal/analyzer/server"
	"github.com/msto63/lexana/internal/analyzer/service"
	"github.com/msto63/lexana/internal/analyzer/store"
	"github.com/msto63/lexana/internal/tui"
	"github.com/msto63/lexana/pkg/core/config"
	"github.com/msto63/lexana/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lexana",
	Short: "lexana - LL(1) expression front end",
	Long: `lexana tokenizes and parses arithmetic expressions with the grammar

  E  -> T E'
  E' -> + T E' | Ɛ
  T  -> F T'
  T' -> * F T' | Ɛ
  F  -> ( E ) | id

and prints the token list, the parse tree and the symbol table.

Commands:
  analyze  - Analyze one expression
  batch    - Analyze a file line by line
  repl     - Interactive prompt
  tui      - Terminal UI
  serve    - HTTP and gRPC server
  history  - Inspect recorded analyses`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errRejected makes the process exit non-zero after a rejected input was
// already reported
var errRejected = errors.New("input rejected")

func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errRejected) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $LEXANA_CONFIG or ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads --config, then the default locations. A missing config
// file is not an error.
func loadConfig() (*config.Config, error) {
	return loadConfigWithLogs("", os.Stderr)
}

// loadClientConfig is loadConfig for the interactive commands: logs go to
// output at warn level or above unless --verbose is set.
func loadClientConfig(output io.Writer) (*config.Config, error) {
	return loadConfigWithLogs("warn", output)
}

func loadConfigWithLogs(level string, output io.Writer) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
		if errors.Is(err, config.ErrNoConfig) {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if level == "" {
		level = cfg.General.LogLevel
	}
	if verbose {
		level = "debug"
	}
	logging.SetDefaults(logging.LoggerConfig{
		Level:  level,
		Format: cfg.General.LogFormat,
		Output: output,
	})
	return cfg, nil
}

// newService builds the analyzer service and opens the history
// database when it is enabled; the returned store is nil otherwise.
func newService(cfg *config.Config) (*service.Service, store.HistoryStore, error) {
	var history store.HistoryStore
	if cfg.History.Enabled {
		s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: cfg.History.Path})
		if err != nil {
			return nil, nil, err
		}
		history = s
	}

	svcCfg := service.Config{
		NormalizeNFC:   cfg.Lexer.NormalizeNFC,
		MatchTimeout:   cfg.Lexer.MatchTimeout.Duration,
		AllowTrailing:  cfg.Parser.AllowTrailing,
		MaxInputLength: cfg.Lexer.MaxInputLength,
		Store:          history,
		Logger:         logging.New("analyzer"),
	}
	if cfg.Cache.Enabled {
		svcCfg.CacheSize = cfg.Cache.MaxItems
		svcCfg.CacheTTL = cfg.Cache.TTL.Duration
	}
	svc, err := service.NewService(svcCfg)
	if err != nil {
		if history != nil {
			history.Close()
		}
		return nil, nil, err
	}
	return svc, history, nil
}

// openHistory opens the history database for the history subcommands
func openHistory(cfg *config.Config) (*service.Service, func(), error) {
	svc, history, err := newService(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		svc.Close()
		if history != nil {
			history.Close()
		}
	}
	return svc, closeFn, nil
}

// newAnalyzer returns the remote analyzer at addr, or a local service when
// addr is empty
func newAnalyzer(cfg *config.Config, addr string) (tui.Analyzer, func(), error) {
	if addr != "" {
		client, err := server.Dial(addr)
		if err != nil {
			return nil, nil, err
		}
		return server.NewRemoteAnalyzer(client), func() { client.Close() }, nil
	}

	svc, history, err := newService(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {
		svc.Close()
		if history != nil {
			history.Close()
		}
	}, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
