package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"tidal-pipeline/internal/analysis"
	"tidal-pipeline/internal/report"
	"tidal-pipeline/internal/series"
	"tidal-pipeline/internal/storage"
)

// Analyze runs the full pipeline over one directory of station files:
// ingest and merge, optionally window, then derive trend, harmonic
// constituents, and the longest contiguous prefix. Per-file parse failures
// are skipped and logged by the pipeline; any error in the analysis of the
// merged data is a real problem and propagates.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	pipeline := a.newPipeline()
	ingested, err := pipeline.Run(ctx, opts.Directory, a.Config.Ingest.FilePattern)
	if err != nil {
		return err
	}
	merged := ingested.Merged

	analyzed, err := applyWindow(merged, opts)
	if err != nil {
		return err
	}
	if len(analyzed) == 0 {
		return errors.New("selected window contains no records")
	}

	constituents := opts.Constituents
	if len(constituents) == 0 {
		constituents = a.Config.Analysis.Constituents
	}

	trend, err := analysis.Trend(analyzed)
	if err != nil {
		return fmt.Errorf("trend fit: %w", err)
	}

	reference := analyzed[0].Timestamp
	harmonics, err := analysis.HarmonicFit(analyzed, constituents, reference)
	if err != nil {
		return fmt.Errorf("harmonic fit: %w", err)
	}

	contiguous := series.LongestContiguous(analyzed)

	first, last, _ := analyzed.Span()
	summary := report.Summary{
		Directory:     opts.Directory,
		Files:         ingested.Files,
		SkippedFiles:  len(ingested.Skipped),
		Records:       len(analyzed),
		ValidRecords:  analyzed.ValidCount(),
		First:         first,
		Last:          last,
		Trend:         trend,
		Harmonics:     harmonics,
		ContiguousLen: len(contiguous),
	}
	if len(contiguous) > 0 {
		summary.ContiguousEnd = contiguous[len(contiguous)-1].Timestamp
	}

	if err := report.WriteSummary(os.Stdout, summary); err != nil {
		return err
	}

	return a.archiveRun(ctx, opts, merged, summary)
}

// applyWindow narrows the merged series to the requested year or date
// range. Both selections re-center the window around its mean sea level.
func applyWindow(merged series.Series, opts AnalyzeOptions) (series.Series, error) {
	switch {
	case opts.Year != 0:
		return series.ExtractYear(opts.Year, merged), nil
	case opts.From != nil && opts.To != nil:
		windowed, err := series.ExtractRange(*opts.From, *opts.To, merged)
		if err != nil {
			return nil, fmt.Errorf("extract range: %w", err)
		}
		return windowed, nil
	default:
		return merged, nil
	}
}

// archiveRun persists the merged observations and the run summary when the
// archive database is configured. Absent a DSN this is a no-op beyond a
// warning, matching the rest of the tool's offline-first behaviour.
func (a *App) archiveRun(ctx context.Context, opts AnalyzeOptions, merged series.Series, summary report.Summary) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; skipping archive")
		return nil
	}
	if closeStore != nil {
		defer closeStore()
	}

	written, err := store.ReplaceObservations(ctx, storage.ObservationsFromSeries(merged))
	if err != nil {
		return fmt.Errorf("archive observations: %w", err)
	}

	fits := make([]storage.ConstituentFit, len(summary.Harmonics.Constituents))
	for i, name := range summary.Harmonics.Constituents {
		fits[i] = storage.ConstituentFit{
			Name:      name,
			Amplitude: summary.Harmonics.Amplitudes[i],
			PhaseRad:  summary.Harmonics.Phases[i],
		}
	}

	run := storage.AnalysisRun{
		Directory:     opts.Directory,
		Records:       summary.Records,
		ValidRecords:  summary.ValidRecords,
		SkippedFiles:  summary.SkippedFiles,
		Slope:         decimal.NewFromFloat(summary.Trend.Slope),
		PValue:        decimal.NewFromFloat(summary.Trend.PValue),
		Constituents:  fits,
		ContiguousLen: summary.ContiguousLen,
	}
	if summary.ContiguousLen > 0 {
		end := summary.ContiguousEnd
		run.ContiguousEnd = &end
	}

	stored, err := store.InsertAnalysisRun(ctx, run)
	if err != nil {
		return fmt.Errorf("archive analysis run: %w", err)
	}

	a.Logger.Info().
		Int64("run_id", stored.ID).
		Int64("observations", written).
		Msg("run archived")
	return nil
}
