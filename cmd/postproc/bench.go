package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/example/go-postproc/internal/bench"
	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/config"
	"github.com/example/go-postproc/internal/text"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		sample        string
		inPath        string
		runs          int
		format        string
		minThroughput float64
		cpuprofile    string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark labeling and decoding throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			lines := []string{sample}
			if inPath != "" {
				lines, err = readBenchLines(inPath)
				if err != nil {
					return err
				}
			}
			if len(lines) == 0 || strings.TrimSpace(strings.Join(lines, "")) == "" {
				return fmt.Errorf("bench input is empty")
			}

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("create cpuprofile: %w", err)
				}
				defer f.Close()

				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("start cpuprofile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			results, err := runBench(cfg, lines, runs)
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results))
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				bench.FormatJSON(results, stats, out)
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckThroughputThreshold(bench.MeanThroughput(results), minThroughput)
		},
	}

	cmd.Flags().StringVar(&sample, "text", "Don't stop! The U.S. economy grew 3.5% in 2023.", "Sample line labeled on each run")
	cmd.Flags().StringVar(&inPath, "in", "", "Corpus file to label on each run (overrides --text)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean chars/s falls below this value (0 = disabled)")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

func readBenchLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return scanLines(f)
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			lines = append(lines, sc.Text())
		}
	}
	return lines, sc.Err()
}

// runBench labels and decodes every line once per run, timing each stage.
func runBench(cfg config.Config, lines []string, runs int) ([]bench.RunResult, error) {
	params, err := cfg.CodecParams()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Preprocess.Options()
	if err != nil {
		return nil, err
	}
	pre, err := text.NewPreprocessor(opts)
	if err != nil {
		return nil, err
	}
	enc, err := codec.NewEncoder(params, nil)
	if err != nil {
		return nil, err
	}
	dec, err := codec.NewDecoder(params)
	if err != nil {
		return nil, err
	}

	results := make([]bench.RunResult, 0, runs)
	for i := range runs {
		var (
			stages bench.Stages
			chars  int
		)

		start := time.Now()
		for _, line := range lines {
			t0 := time.Now()
			a, err := pre.Process(line)
			if err != nil {
				return nil, fmt.Errorf("run %d: preprocess: %w", i+1, err)
			}
			t1 := time.Now()
			doc, err := enc.EncodeAlignment(a)
			if err != nil {
				return nil, fmt.Errorf("run %d: encode: %w", i+1, err)
			}
			t2 := time.Now()
			if _, err := dec.Decode(doc.Chars, codec.Gold); err != nil {
				return nil, fmt.Errorf("run %d: decode: %w", i+1, err)
			}
			t3 := time.Now()

			stages.Preprocess += t1.Sub(t0)
			stages.Encode += t2.Sub(t1)
			stages.Decode += t3.Sub(t2)
			chars += len(doc.Chars)
		}
		elapsed := time.Since(start)

		results = append(results, bench.RunResult{
			Index:       i,
			Cold:        i == 0,
			Duration:    elapsed,
			Stages:      stages,
			Chars:       chars,
			CharsPerSec: bench.CalcThroughput(chars, elapsed),
		})
	}

	return results, nil
}
