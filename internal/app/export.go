package app

import (
	"context"
	"errors"
	"fmt"

	"tidal-pipeline/internal/report"
	"tidal-pipeline/internal/series"
	"tidal-pipeline/internal/storage"
)

// Export renders a series as CSV and/or PNG. With a directory the series
// comes from re-ingesting the station files; with a --from/--to window it
// comes from the archive database instead.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	var merged series.Series
	var err error
	if opts.Directory != "" {
		merged, err = a.exportSourceFiles(ctx, opts)
	} else {
		merged, err = a.exportSourceArchive(ctx, opts)
	}
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		a.Logger.Info().Msg("nothing to export")
		return nil
	}

	downsampled := report.Downsample(merged, opts.MaxPoints)
	a.Logger.Info().Int("total", len(merged)).Int("exported", len(downsampled)).Msg("exporting series")

	if opts.CSVPath != "" {
		if err := report.WriteCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := report.WritePNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) exportSourceFiles(ctx context.Context, opts ExportOptions) (series.Series, error) {
	pipeline := a.newPipeline()
	ingested, err := pipeline.Run(ctx, opts.Directory, a.Config.Ingest.FilePattern)
	if err != nil {
		return nil, err
	}
	if len(ingested.Skipped) > 0 {
		a.Logger.Warn().Int("skipped", len(ingested.Skipped)).Msg("some station files were skipped")
	}
	return ingested.Merged, nil
}

func (a *App) exportSourceArchive(ctx context.Context, opts ExportOptions) (series.Series, error) {
	if opts.From == nil || opts.To == nil {
		return nil, errors.New("either a directory or both --from and --to must be provided")
	}
	if !opts.From.Before(*opts.To) {
		return nil, errors.New("--from must be before --to")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("database not configured; cannot export from the archive")
	}
	if closeStore != nil {
		defer closeStore()
	}

	total, err := store.CountObservations(ctx)
	if err != nil {
		return nil, err
	}

	observations, err := store.ListObservationsBetween(ctx, opts.From.UTC(), opts.To.UTC())
	if err != nil {
		return nil, fmt.Errorf("load archived window: %w", err)
	}

	a.Logger.Info().
		Int64("archived_total", total).
		Int("window", len(observations)).
		Msg("loaded observations from archive")

	return storage.SeriesFromObservations(observations), nil
}
