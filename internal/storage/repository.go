package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tidal-pipeline/internal/series"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	deleteObservationsSQL = `DELETE FROM observations WHERE station = ANY($1);`

	countObservationsSQL = `SELECT COUNT(*) FROM observations;`

	listObservationsBetweenSQL = `SELECT
        station,
        obs_ts,
        sea_level,
        residual
    FROM observations
    WHERE obs_ts >= $1
      AND obs_ts < $2
    ORDER BY obs_ts;`

	insertAnalysisRunSQL = `INSERT INTO analysis_runs (
        directory,
        records,
        valid_records,
        skipped_files,
        slope_per_day,
        p_value,
        constituents,
        contiguous_len,
        contiguous_end
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	listRecentRunsSQL = `SELECT
        id,
        directory,
        records,
        valid_records,
        skipped_files,
        slope_per_day,
        p_value,
        constituents,
        contiguous_len,
        contiguous_end,
        created_at
    FROM analysis_runs
    ORDER BY created_at DESC
    LIMIT $1;`
)

// ObservationStore defines operations for archived observations.
type ObservationStore interface {
	ReplaceObservations(ctx context.Context, observations []Observation) (int64, error)
	ListObservationsBetween(ctx context.Context, from, to time.Time) ([]Observation, error)
	CountObservations(ctx context.Context) (int64, error)
}

// RunStore defines operations for analysis-run auditing.
type RunStore interface {
	InsertAnalysisRun(ctx context.Context, run AnalysisRun) (AnalysisRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]AnalysisRun, error)
}

// Store aggregates access to observations and analysis runs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// SeriesFromObservations converts archive rows back into a series, in the
// order the archive returned them.
func SeriesFromObservations(observations []Observation) series.Series {
	out := make(series.Series, 0, len(observations))
	for _, obs := range observations {
		rec := series.Record{Station: obs.Station, Timestamp: obs.Timestamp}
		if obs.SeaLevel != nil {
			rec.SeaLevel = series.Some(*obs.SeaLevel)
		}
		if obs.Residual != nil {
			rec.Residual = series.Some(*obs.Residual)
		}
		out = append(out, rec)
	}
	return out
}

// ObservationsFromSeries converts a merged series into archive rows.
func ObservationsFromSeries(merged series.Series) []Observation {
	out := make([]Observation, 0, len(merged))
	for _, r := range merged {
		obs := Observation{Station: r.Station, Timestamp: r.Timestamp}
		if r.SeaLevel.Valid {
			v := r.SeaLevel.Value
			obs.SeaLevel = &v
		}
		if r.Residual.Valid {
			v := r.Residual.Value
			obs.Residual = &v
		}
		out = append(out, obs)
	}
	return out
}

// ReplaceObservations re-archives every station present in the batch: prior
// rows for those stations are dropped, then the batch is bulk-copied in.
// Returns the number of rows written.
func (s *Store) ReplaceObservations(ctx context.Context, observations []Observation) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if len(observations) == 0 {
		return 0, nil
	}

	stations := make([]string, 0)
	seen := make(map[string]struct{})
	for _, obs := range observations {
		if _, ok := seen[obs.Station]; ok {
			continue
		}
		seen[obs.Station] = struct{}{}
		stations = append(stations, obs.Station)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteObservationsSQL, stations); err != nil {
		return 0, fmt.Errorf("clear stale observations: %w", err)
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"observations"},
		[]string{"station", "obs_ts", "sea_level", "residual"},
		pgx.CopyFromSlice(len(observations), func(i int) ([]any, error) {
			obs := observations[i]
			var level, residual any
			if obs.SeaLevel != nil {
				level = *obs.SeaLevel
			}
			if obs.Residual != nil {
				residual = *obs.Residual
			}
			return []any{obs.Station, obs.Timestamp, level, residual}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy observations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit archive tx: %w", err)
	}
	return copied, nil
}

// ListObservationsBetween lists archived observations within a time window.
func (s *Store) ListObservationsBetween(ctx context.Context, from, to time.Time) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listObservationsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list observations between: %w", queryErr)
	}
	defer rows.Close()

	observations := make([]Observation, 0)
	for rows.Next() {
		var obs Observation
		var level, residual sql.NullFloat64
		if err := rows.Scan(&obs.Station, &obs.Timestamp, &level, &residual); err != nil {
			return nil, err
		}
		if level.Valid {
			v := level.Float64
			obs.SeaLevel = &v
		}
		if residual.Valid {
			v := residual.Float64
			obs.Residual = &v
		}
		observations = append(observations, obs)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return observations, nil
}

// CountObservations counts archived observations.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countObservationsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count observations: %w", scanErr)
	}
	return count, nil
}

// InsertAnalysisRun persists one completed run.
func (s *Store) InsertAnalysisRun(ctx context.Context, run AnalysisRun) (AnalysisRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return AnalysisRun{}, err
	}

	constituents, err := json.Marshal(run.Constituents)
	if err != nil {
		return AnalysisRun{}, fmt.Errorf("marshal constituents: %w", err)
	}

	var contiguousEnd any
	if run.ContiguousEnd != nil {
		contiguousEnd = *run.ContiguousEnd
	}

	row := pool.QueryRow(ctx, insertAnalysisRunSQL,
		run.Directory,
		run.Records,
		run.ValidRecords,
		run.SkippedFiles,
		run.Slope.String(),
		run.PValue.String(),
		constituents,
		run.ContiguousLen,
		contiguousEnd,
	)

	if scanErr := row.Scan(&run.ID, &run.CreatedAt); scanErr != nil {
		return AnalysisRun{}, fmt.Errorf("insert analysis run: %w", scanErr)
	}
	return run, nil
}

// ListRecentRuns lists the most recent analysis runs.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]AnalysisRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]AnalysisRun, 0, limit)
	for rows.Next() {
		run, scanErr := scanAnalysisRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, run)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

func scanAnalysisRun(rows pgx.Rows) (AnalysisRun, error) {
	var (
		run           AnalysisRun
		slopeStr      string
		pValueStr     string
		constituents  json.RawMessage
		contiguousEnd sql.NullTime
	)

	if err := rows.Scan(
		&run.ID,
		&run.Directory,
		&run.Records,
		&run.ValidRecords,
		&run.SkippedFiles,
		&slopeStr,
		&pValueStr,
		&constituents,
		&run.ContiguousLen,
		&contiguousEnd,
		&run.CreatedAt,
	); err != nil {
		return AnalysisRun{}, err
	}

	var convErr error
	run.Slope, convErr = decimal.NewFromString(slopeStr)
	if convErr != nil {
		return AnalysisRun{}, fmt.Errorf("parse slope: %w", convErr)
	}
	run.PValue, convErr = decimal.NewFromString(pValueStr)
	if convErr != nil {
		return AnalysisRun{}, fmt.Errorf("parse p-value: %w", convErr)
	}

	if len(constituents) > 0 {
		if err := json.Unmarshal(constituents, &run.Constituents); err != nil {
			return AnalysisRun{}, fmt.Errorf("parse constituents: %w", err)
		}
	}
	if contiguousEnd.Valid {
		ts := contiguousEnd.Time
		run.ContiguousEnd = &ts
	}

	return run, nil
}

var (
	_ ObservationStore = (*Store)(nil)
	_ RunStore         = (*Store)(nil)
)
