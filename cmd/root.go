package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/votemap/precinct-cli/internal/config"
	"github.com/votemap/precinct-cli/pkg/valasztas"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "precinct-cli",
	Short: "Election results to GeoJSON exporter",
	Long:  "Reads a per-county polling station results workbook, resolves settlement codes and station boundaries from the valasztas.hu map portlets, and emits a GeoJSON FeatureCollection.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newPortletClient builds the valasztas.hu client shared by the commands.
func newPortletClient(cfg *config.Config) valasztas.Client {
	return valasztas.NewClient(
		valasztas.WithBaseURL(cfg.Valasztas.BaseURL),
		valasztas.WithElection(cfg.Valasztas.VlID, cfg.Valasztas.VltID),
		valasztas.WithTimeout(time.Duration(cfg.Valasztas.TimeoutSecs)*time.Second),
		valasztas.WithRateLimit(cfg.Valasztas.RateLimit),
		valasztas.WithUserAgent(cfg.Valasztas.UserAgent),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
