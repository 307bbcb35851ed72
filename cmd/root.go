package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-cli/internal/config"
)

var (
	cfg      *config.Config
	logLevel string
)

const rootLong = `Ranks suppliers for a product from the reference dataset (GPS, medical,
and government supplier tables plus the consumer complaints export).

Each supplier starts from a base score that is adjusted by complaint history,
weather and tariff risk at its location, product classification fit, expired
products, and shipping distance. The top candidates are returned with a
written explanation and can be rated afterwards with "feedback add".

Configuration is read from config.yaml in the working directory and from
SUPPLIER_* environment variables (SUPPLIER_DATASET_DIR, SUPPLIER_WEATHER_KEY,
SUPPLIER_TARIFF_KEY, SUPPLIER_ANTHROPIC_KEY, SUPPLIER_STORE_DRIVER, ...).
Missing API keys disable the matching signal instead of failing the run.`

const rootExample = `  supplier-cli recommend --category GPS --product "Fleet tracker" --location "Austin, TX"
  supplier-cli serve --port 8080
  supplier-cli feedback list --limit 20
  supplier-cli validate-config`

var rootCmd = &cobra.Command{
	Use:          "supplier-cli",
	Short:        "Score, rank, and explain suppliers for a product",
	Long:         rootLong,
	Example:      rootExample,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load supplier config")
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("supplier config loaded",
			zap.String("dataset_dir", cfg.Dataset.Dir),
			zap.String("store_driver", cfg.Store.Driver),
			zap.Bool("weather_enabled", cfg.Weather.Key != ""),
			zap.Bool("tariff_enabled", cfg.Tariff.Key != ""),
			zap.Bool("explain_enabled", cfg.Anthropic.Key != ""),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
