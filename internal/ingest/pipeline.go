package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tidal-pipeline/internal/series"
)

// FileError records a station file that failed to parse and was skipped.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Pipeline turns a directory of station files into a single merged series.
type Pipeline struct {
	opts   Options
	logger zerolog.Logger
}

// NewPipeline constructs an ingestion pipeline.
func NewPipeline(opts Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{opts: opts, logger: logger.With().Str("component", "ingest").Logger()}
}

// RunResult is the outcome of one ingestion pass.
type RunResult struct {
	// Merged is the chronologically sorted union of every parsed file.
	Merged series.Series
	// Skipped lists the files that failed to parse.
	Skipped []FileError
	// Files is the number of station files discovered, parsed or not.
	Files int
}

// Run discovers every station file under dir, parses each one, and merges
// the results chronologically. A file that fails to parse is logged,
// recorded in the result's skip list, and skipped; one bad file never
// aborts the batch. The error return is reserved for batch-level failures
// (unreadable directory, no files at all).
func (p *Pipeline) Run(ctx context.Context, dir, pattern string) (RunResult, error) {
	paths, err := DiscoverStationFiles(dir, pattern)
	if err != nil {
		return RunResult{}, err
	}
	if len(paths) == 0 {
		return RunResult{}, fmt.Errorf("no station files matching %q under %s", pattern, dir)
	}

	result := RunResult{Files: len(paths)}
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s, err := ReadStationFile(path, p.opts)
		if err != nil {
			p.logger.Warn().Err(err).Str("file", path).Msg("skipping station file")
			result.Skipped = append(result.Skipped, FileError{Path: path, Err: err})
			continue
		}

		p.logger.Debug().Str("file", path).Int("records", len(s)).Msg("parsed station file")
		result.Merged = series.Merge(result.Merged, s)
	}

	if len(result.Merged) == 0 {
		return result, fmt.Errorf("no usable records in %d station file(s)", len(paths))
	}

	p.logger.Info().
		Int("files", result.Files).
		Int("skipped", len(result.Skipped)).
		Int("records", len(result.Merged)).
		Msg("ingestion complete")

	return result, nil
}
