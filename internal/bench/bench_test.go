package bench_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/go-postproc/internal/bench"
)

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

func TestStats_MinMaxMean(t *testing.T) {
	durations := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}
	s := bench.ComputeStats(durations)

	if s.Min != 100*time.Millisecond {
		t.Errorf("want min=100ms, got %v", s.Min)
	}

	if s.Max != 300*time.Millisecond {
		t.Errorf("want max=300ms, got %v", s.Max)
	}

	if s.Mean != 200*time.Millisecond {
		t.Errorf("want mean=200ms, got %v", s.Mean)
	}
}

func TestStats_SingleRun(t *testing.T) {
	s := bench.ComputeStats([]time.Duration{150 * time.Millisecond})
	if s.Min != s.Max || s.Min != s.Mean {
		t.Errorf("single run: min/max/mean should all be equal, got min=%v max=%v mean=%v", s.Min, s.Max, s.Mean)
	}
}

func TestStats_Empty(t *testing.T) {
	if s := bench.ComputeStats(nil); s != (bench.Stats{}) {
		t.Errorf("want zero Stats, got %+v", s)
	}
}

func TestDurations(t *testing.T) {
	runs := []bench.RunResult{{Duration: time.Second}, {Duration: 2 * time.Second}}

	got := bench.Durations(runs)
	if len(got) != 2 || got[0] != time.Second || got[1] != 2*time.Second {
		t.Errorf("Durations() = %v", got)
	}
}

func TestStages_Total(t *testing.T) {
	s := bench.Stages{Preprocess: time.Millisecond, Encode: 2 * time.Millisecond, Decode: 3 * time.Millisecond}
	if s.Total() != 6*time.Millisecond {
		t.Errorf("Total() = %v; want 6ms", s.Total())
	}
}

// ---------------------------------------------------------------------------
// Throughput
// ---------------------------------------------------------------------------

func TestThroughput_Calculation(t *testing.T) {
	// 1000 chars labeled in 500ms → 2000 chars/s
	got := bench.CalcThroughput(1000, 500*time.Millisecond)
	if got < 1999.9 || got > 2000.1 {
		t.Errorf("want throughput≈2000, got %.4f", got)
	}
}

func TestThroughput_ZeroDuration(t *testing.T) {
	if got := bench.CalcThroughput(1000, 0); got != 0 {
		t.Errorf("want 0 for zero duration, got %.4f", got)
	}
}

func TestMeanThroughput_SkipsColdRun(t *testing.T) {
	runs := []bench.RunResult{
		{Cold: true, CharsPerSec: 10},
		{CharsPerSec: 100},
		{CharsPerSec: 200},
	}
	if got := bench.MeanThroughput(runs); got != 150 {
		t.Errorf("MeanThroughput() = %v; want 150", got)
	}
}

func TestMeanThroughput_SingleColdRun(t *testing.T) {
	runs := []bench.RunResult{{Cold: true, CharsPerSec: 42}}
	if got := bench.MeanThroughput(runs); got != 42 {
		t.Errorf("MeanThroughput() = %v; want 42", got)
	}
}

// ---------------------------------------------------------------------------
// Throughput threshold gate
// ---------------------------------------------------------------------------

func TestThroughputThreshold_BelowMinimum(t *testing.T) {
	if err := bench.CheckThroughputThreshold(500, 1000); err == nil {
		t.Error("want error when mean throughput is below the minimum")
	}
}

func TestThroughputThreshold_AboveMinimum(t *testing.T) {
	if err := bench.CheckThroughputThreshold(1500, 1000); err != nil {
		t.Errorf("want no error above minimum, got: %v", err)
	}
}

func TestThroughputThreshold_ExactlyAtMinimum(t *testing.T) {
	if err := bench.CheckThroughputThreshold(1000, 1000); err != nil {
		t.Errorf("want no error at exact minimum, got: %v", err)
	}
}

func TestThroughputThreshold_DisabledWhenZero(t *testing.T) {
	if err := bench.CheckThroughputThreshold(0, 0); err != nil {
		t.Errorf("minimum=0 should disable gate, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Output formatting
// ---------------------------------------------------------------------------

func sampleRuns() []bench.RunResult {
	return []bench.RunResult{
		{Index: 0, Cold: true, Duration: 8 * time.Millisecond, Chars: 1300, CharsPerSec: 162500},
		{Index: 1, Duration: 5 * time.Millisecond, Chars: 1300, CharsPerSec: 260000},
	}
}

func TestFormatTable_ContainsHeaders(t *testing.T) {
	runs := sampleRuns()
	stats := bench.ComputeStats(bench.Durations(runs))

	var buf strings.Builder
	bench.FormatTable(runs, stats, &buf)
	out := buf.String()

	for _, want := range []string{"run", "cold", "ms", "chars/s", "(mean)"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON_IsValidJSON(t *testing.T) {
	runs := sampleRuns()
	stats := bench.ComputeStats(bench.Durations(runs))

	var buf bytes.Buffer
	bench.FormatJSON(runs, stats, &buf)

	var out struct {
		Runs []struct {
			Chars      int     `json:"chars"`
			DurationMS float64 `json:"duration_ms"`
		} `json:"runs"`
		Stats struct {
			MeanMS float64 `json:"mean_ms"`
		} `json:"stats"`
	}

	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v\n%s", err, buf.String())
	}

	if len(out.Runs) != 2 || out.Runs[0].Chars != 1300 || out.Runs[1].DurationMS != 5 {
		t.Errorf("runs = %+v", out.Runs)
	}

	if out.Stats.MeanMS != 6.5 {
		t.Errorf("mean_ms = %v; want 6.5", out.Stats.MeanMS)
	}
}
