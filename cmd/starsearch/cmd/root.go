package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yrd980/starsearch/internal/config"
	"github.com/Yrd980/starsearch/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	cfgFile     string
	verbose     bool
	showVersion bool
	cfg         config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "starsearch",
	Short: "Index and search your starred GitHub repositories",
	Long: `starsearch builds a local full-text index over the repositories you
have starred on GitHub, including their README content, and serves ranked
search with typo tolerance over it.

Commands:
  index   Fetch the starred listing and (re)build the local index
  serve   Start the HTTP search API
  search  Query the index from the command line`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("starsearch %s (sqlite driver %s, %s build)\n",
				Version, storage.DriverName, storage.BuildMode)
			return nil
		}
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./starsearch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("starsearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/starsearch")
	}

	// Environment variable overrides
	// STARSEARCH_GITHUB_TOKEN -> github.token
	viper.SetEnvPrefix("STARSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("github.token", "STARSEARCH_GITHUB_TOKEN")
	viper.BindEnv("github.api_url", "STARSEARCH_GITHUB_API_URL")
	viper.BindEnv("index.db_path", "STARSEARCH_INDEX_DB_PATH")
	viper.BindEnv("index.cache_dir", "STARSEARCH_INDEX_CACHE_DIR")
	viper.BindEnv("index.workers", "STARSEARCH_INDEX_WORKERS")
	viper.BindEnv("server.addr", "STARSEARCH_SERVER_ADDR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}
}
