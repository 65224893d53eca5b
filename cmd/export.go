package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/votemap/precinct-cli/internal/model"
	"github.com/votemap/precinct-cli/internal/pipeline"
	"github.com/votemap/precinct-cli/internal/settlement"
	"github.com/votemap/precinct-cli/internal/workbook"
)

var exportWorkbook string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export station results as a GeoJSON FeatureCollection",
	Long: `Export runs the full enrichment pass and prints the document to stdout.

Every data row of the workbook becomes one feature. Stations whose boundary
cannot be fetched keep their results under a null geometry; a settlement name
that cannot be resolved to a code aborts the run with no output.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		path := exportWorkbook
		if path == "" {
			path = cfg.Workbook.Path
		}

		log := zap.L().With(
			zap.String("command", "export"),
			zap.String("run_id", uuid.NewString()),
		)

		sheets, err := workbook.Load(path)
		if err != nil {
			return err
		}
		log.Info("workbook loaded", zap.String("path", path), zap.Int("sheets", len(sheets)))

		client := newPortletClient(cfg)
		cache := settlement.NewCache()
		p := pipeline.New(client, settlement.NewResolver(client, cache))

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Fetching boundaries"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			p.OnFeature = func(*model.Feature) { _ = bar.Add(1) }
		}

		fc, err := p.Run(ctx, sheets)
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return eris.Wrap(err, "export")
		}

		var missing int
		for _, f := range fc.Features {
			if f.Geometry == nil {
				missing++
			}
		}
		log.Info("export complete",
			zap.Int("features", len(fc.Features)),
			zap.Int("missing_boundaries", missing),
			zap.Int("settlements_resolved", cache.Len()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fc)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportWorkbook, "workbook", "", "path to the results workbook (default: workbook.path from config)")
	rootCmd.AddCommand(exportCmd)
}
