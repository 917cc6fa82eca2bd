package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/listing-atlas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listing-atlas",
	Short: "Maps and charts of New York City Airbnb listings",
	Long:  "Reads the 2019 NYC Airbnb listings and borough shapefiles, classifies prices into marker tiers, and renders static charts and interactive web maps.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return eris.Wrap(err, "validate config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
