// Package bench provides benchmarking primitives for the postproc bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// Stages holds the time spent in each codec stage of a single run.
type Stages struct {
	Preprocess time.Duration
	Encode     time.Duration
	Decode     time.Duration
}

// Total returns the sum of all stage durations.
func (s Stages) Total() time.Duration { return s.Preprocess + s.Encode + s.Decode }

// RunResult holds the timing and volume metadata for a single labeling run.
type RunResult struct {
	Index       int
	Cold        bool // true for the first run (cold-start)
	Duration    time.Duration
	Stages      Stages
	Chars       int
	CharsPerSec float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the wall-clock duration of every run.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// ---------------------------------------------------------------------------
// Throughput
// ---------------------------------------------------------------------------

// CalcThroughput returns labeled characters per second.
// Returns 0 if d is zero.
func CalcThroughput(chars int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(chars) / d.Seconds()
}

// MeanThroughput averages CharsPerSec over the warm runs. A single run is
// used as-is.
func MeanThroughput(runs []RunResult) float64 {
	var (
		sum float64
		n   int
	)
	for _, r := range runs {
		if r.Cold && len(runs) > 1 {
			continue
		}
		sum += r.CharsPerSec
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// CheckThroughputThreshold returns an error if mean < minimum.
// A minimum of 0 disables the gate.
func CheckThroughputThreshold(mean, minimum float64) error {
	if minimum <= 0 {
		return nil
	}
	if mean < minimum {
		return fmt.Errorf("mean throughput %.1f chars/s below threshold %.1f", mean, minimum)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %10s  %10s  %10s  %12s\n",
		"Run", "Cold", "MS", "Prep(ms)", "Enc(ms)", "Dec(ms)", "Chars/s")
	fmt.Fprintln(sb, strings.Repeat("-", 77))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.2f  %10.2f  %10.2f  %10.2f  %12.0f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			ms(r.Stages.Preprocess),
			ms(r.Stages.Encode),
			ms(r.Stages.Decode),
			r.CharsPerSec,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 77))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.2f  (min)\n", "", "", ms(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.2f  (mean)\n", "", "", ms(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.2f  (max)\n", "", "", ms(stats.Max))

	fmt.Fprint(w, sb.String())
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index        int     `json:"index"`
	Cold         bool    `json:"cold"`
	DurationMS   float64 `json:"duration_ms"`
	PreprocessMS float64 `json:"preprocess_ms"`
	EncodeMS     float64 `json:"encode_ms"`
	DecodeMS     float64 `json:"decode_ms"`
	Chars        int     `json:"chars"`
	CharsPerSec  float64 `json:"chars_per_sec"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  ms(stats.Min),
			MeanMS: ms(stats.Mean),
			MaxMS:  ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:        r.Index,
			Cold:         r.Cold,
			DurationMS:   ms(r.Duration),
			PreprocessMS: ms(r.Stages.Preprocess),
			EncodeMS:     ms(r.Stages.Encode),
			DecodeMS:     ms(r.Stages.Decode),
			Chars:        r.Chars,
			CharsPerSec:  r.CharsPerSec,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
