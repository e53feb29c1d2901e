package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/verifica/internal/config"
	"github.com/ppiankov/verifica/internal/history"
	"github.com/ppiankov/verifica/internal/llm"
	"github.com/ppiankov/verifica/internal/logging"
	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/sources"
	"github.com/ppiankov/verifica/internal/verify"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verifica",
	Short: "Verifica - fact-check claims against trusted sources",
	Long: `Verifica sends a claim to a search-grounded language model, restricted
to a list of trusted news, reference, fact-checking and scientific sites,
and prints a verdict: TRUE, FALSE, MISLEADING or UNABLE_TO_VERIFY, with
the sources that back it.

Every verdict is kept in a local history.

Example:
  verifica verify "The Great Wall of China is visible from space"
  verifica history list
  verifica batch claims.txt --concurrency 4`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "verifica %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verifica/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.Dir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// app holds the process-wide dependencies shared by commands
type app struct {
	cfg     *model.Config
	logger  *zap.Logger
	trusted *sources.List
	store   *history.Store
}

// newApp loads configuration, builds the logger and opens the history store
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.JSON, os.Stderr)
	if err != nil {
		return nil, err
	}

	trusted, err := sources.NewList(cfg.Sources.Domains)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(ctx, cfg.History, logger.Named("history"))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("provider", cfg.API.Provider),
		zap.String("model", cfg.API.Model),
		zap.String("history_driver", cfg.History.Driver),
		zap.String("history_path", filepath.Clean(cfg.History.Path)),
		zap.Int("trusted_domains", trusted.Len()))

	return &app{cfg: cfg, logger: logger, trusted: trusted, store: store}, nil
}

// service builds the verification service, which needs a configured provider
func (a *app) service() (*verify.Service, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(a.cfg))
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return verify.NewService(provider, a.store, a.cfg.API, a.trusted.Domains(), a.logger.Named("verify")), nil
}

// historyService builds a service for commands that only touch history
func (a *app) historyService() *verify.Service {
	return verify.NewService(nil, a.store, a.cfg.API, a.trusted.Domains(), a.logger.Named("verify"))
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close history", zap.Error(err))
	}
	_ = a.logger.Sync()
}
