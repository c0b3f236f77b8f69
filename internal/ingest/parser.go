package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tidal-pipeline/internal/series"
)

var (
	// ErrNotFound indicates the station file does not exist.
	ErrNotFound = errors.New("ingest: file not found")
	// ErrParse indicates a malformed row or file. Per-file parse errors are
	// caught by the pipeline so one bad file never aborts the whole batch.
	ErrParse = errors.New("ingest: parse failure")
)

// defaultHeaderLines is the fixed station-metadata preamble every gauge
// file carries before the first data row.
const defaultHeaderLines = 11

// Sentinel tokens the gauges emit in place of a reading: moored-gauge void,
// no reading, and time error. Exact, case-sensitive matches only.
var sentinelTokens = map[string]struct{}{
	"M": {},
	"N": {},
	"T": {},
}

// Options tune the station-file parser.
type Options struct {
	// HeaderLines overrides the number of metadata lines skipped before
	// data rows. Zero means the standard 11-line header.
	HeaderLines int
}

// ReadStationFile parses one fixed-format tide-gauge file into a series.
//
// The canonical row layout is whitespace-delimited
// [cycle, date, time, sea_level, residual], with dates in YYYY/MM/DD or
// YYYY-MM-DD form and times in HH:MM:SS. Sentinel tokens (M, N, T) and any
// other non-numeric sea-level token become missing readings rather than
// errors. Rows come back in file order; gauge files are chronological as
// written and the parser does not sort.
func ReadStationFile(path string, opts Options) (series.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open station file: %w", err)
	}
	defer f.Close()

	headerLines := opts.HeaderLines
	if headerLines <= 0 {
		headerLines = defaultHeaderLines
	}

	station := stationName(path)

	out := make(series.Series, 0, 1024)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLines {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrParse, path, lineNo, err)
		}
		rec.Station = station
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read station file: %w", err)
	}

	return out, nil
}

func parseRow(line string) (series.Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return series.Record{}, fmt.Errorf("expected 5 columns, got %d", len(fields))
	}

	cycle, err := parseCycle(fields[0])
	if err != nil {
		return series.Record{}, fmt.Errorf("cycle column: %w", err)
	}

	stamp, err := parseTimestamp(fields[1], fields[2])
	if err != nil {
		return series.Record{}, err
	}

	return series.Record{
		Cycle:     cycle,
		Timestamp: stamp,
		SeaLevel:  parseReading(fields[3]),
		Residual:  parseReading(fields[4]),
	}, nil
}

// parseCycle accepts the raw cycle/sequence column, tolerating the trailing
// ")" some archives append to the counter.
func parseCycle(tok string) (int, error) {
	tok = strings.TrimSuffix(tok, ")")
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// parseTimestamp joins the date and time columns into one UTC instant.
// Localizing exactly once here keeps all downstream timestamp arithmetic
// timezone-consistent.
func parseTimestamp(dateTok, timeTok string) (time.Time, error) {
	normalized := strings.ReplaceAll(dateTok, "/", "-")
	stamp, err := time.ParseInLocation("2006-01-02 15:04:05", normalized+" "+timeTok, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q %q: %w", dateTok, timeTok, err)
	}
	return stamp, nil
}

// parseReading coerces a value column. Sentinels and anything else
// non-numeric map to a missing reading, never to 0.0 and never to an error.
func parseReading(tok string) series.Reading {
	if _, sentinel := sentinelTokens[tok]; sentinel {
		return series.Reading{}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return series.Reading{}
	}
	return series.Some(v)
}

func stationName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
