package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/chainview/internal/broker"
	"github.com/dgnsrekt/chainview/internal/config"
	"github.com/dgnsrekt/chainview/internal/market"
	"github.com/dgnsrekt/chainview/internal/snapshot"
)

var (
	cfgFile   string
	verbose   bool
	logger    *zap.Logger
	cfg       *config.Config
	brokerCfg *broker.Config
)

func setupLogger(verbose bool, level string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
		zapConfig.OutputPaths = []string{"stderr"}
	}

	if level != "" && !verbose {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(l)
		}
	}

	return zapConfig.Build()
}

// newClient builds the broker client from the loaded configuration.
func newClient() *broker.HTTPClient {
	return broker.NewClient(brokerCfg, nil, logger.Named("broker"))
}

// newEngine builds a snapshot engine without metrics or a background buffer.
func newEngine(client *broker.HTTPClient) *snapshot.Engine {
	return snapshot.New(client, snapshot.Options{
		AccountID:      brokerCfg.AccountID,
		QuoteTTL:       cfg.Cache.QuoteTTL,
		ChainTTL:       cfg.Cache.ChainTTL,
		ExpirationsTTL: cfg.Cache.ExpirationsTTL,
		Location:       cfg.Location(),
		Calendar:       market.NewCalendar(cfg.Location()),
	}, logger.Named("snapshot"))
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "chainctl",
		Short:        "Inspect option chains from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				var err error
				logger, err = setupLogger(verbose, "")
				return err
			}

			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("reading .env: %w", err)
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			logger, err = setupLogger(verbose, cfg.Log.Level)
			if err != nil {
				return err
			}

			brokerCfg, err = broker.LoadConfig()
			if err != nil {
				return err
			}
			return brokerCfg.Validate()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("CHAINVIEW_CONFIG"), "config file path (or set CHAINVIEW_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(spreadsCmd())
	rootCmd.AddCommand(leadersCmd())

	return rootCmd
}

func main() {
	rootCmd := newRootCmd()

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
