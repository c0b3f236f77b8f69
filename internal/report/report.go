package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"tidal-pipeline/internal/analysis"
	"tidal-pipeline/internal/series"
)

// Summary bundles everything the analyze command reports. The core hands
// this over fully computed; all formatting decisions live here.
type Summary struct {
	Directory     string
	Files         int
	SkippedFiles  int
	Records       int
	ValidRecords  int
	First         time.Time
	Last          time.Time
	Trend         analysis.TrendResult
	Harmonics     analysis.HarmonicResult
	ContiguousLen int
	ContiguousEnd time.Time
}

// WriteSummary prints the human-readable run summary.
func WriteSummary(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Directory\t%s\n", s.Directory)
	fmt.Fprintf(tw, "Station files\t%d (%d skipped)\n", s.Files, s.SkippedFiles)
	fmt.Fprintf(tw, "Records\t%d (%d valid)\n", s.Records, s.ValidRecords)
	fmt.Fprintf(tw, "Span\t%s to %s\n", s.First.Format(time.RFC3339), s.Last.Format(time.RFC3339))
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Sea-level trend\t%.6g m/day (%.3f mm/yr)\n", s.Trend.Slope, s.Trend.SlopeMMPerYear())
	fmt.Fprintf(tw, "p-value\t%.4g\n", s.Trend.PValue)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Constituent\tAmplitude (m)\tPhase (rad)")
	for i, name := range s.Harmonics.Constituents {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", name, s.Harmonics.Amplitudes[i], s.Harmonics.Phases[i])
	}
	fmt.Fprintln(tw)

	if s.ContiguousLen > 0 {
		fmt.Fprintf(tw, "Longest contiguous prefix\t%d records, ending %s\n",
			s.ContiguousLen, s.ContiguousEnd.Format(time.RFC3339))
	} else {
		fmt.Fprintln(tw, "Longest contiguous prefix\tnone (first reading is missing)")
	}

	return tw.Flush()
}

// Downsample thins the series to at most max records, keeping the ends.
// A budget of one keeps the first record only.
func Downsample(s series.Series, max int) series.Series {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max == 1 {
		return series.Series{s[0]}
	}

	result := make(series.Series, 0, max)
	step := float64(len(s)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(s) {
			idx = len(s) - 1
		}
		result = append(result, s[idx])
	}
	return result
}

// WriteCSV exports the merged series.
func WriteCSV(path string, merged series.Series) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "station", "sea_level", "residual", "missing"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range merged {
		record := []string{
			r.Timestamp.Format(time.RFC3339),
			r.Station,
			formatReading(r.SeaLevel),
			formatReading(r.Residual),
			strconv.FormatBool(!r.SeaLevel.Valid),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// WritePNG renders the merged sea level as a time-series chart. Missing
// readings are left out of the plot.
func WritePNG(path string, merged series.Series) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, 0, len(merged))
	y := make([]float64, 0, len(merged))
	for _, r := range merged {
		if !r.SeaLevel.Valid {
			continue
		}
		x = append(x, r.Timestamp)
		y = append(y, r.SeaLevel.Value)
	}
	if len(x) < 2 {
		return errors.New("not enough valid readings to chart")
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Sea level (m)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.3f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Sea level",
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func formatReading(r series.Reading) string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
