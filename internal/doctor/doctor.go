// Package doctor provides environment preflight checks for postproc.
package doctor

import (
	"fmt"
	"io"
	"os"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// CheckFunc returns a short description of what it verified, or an error.
type CheckFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// CodecParams validates the codec parameters.
	CodecParams CheckFunc
	// Preprocessor builds the configured preprocessor.
	Preprocessor CheckFunc
	// SampleRoundTrip encodes and decodes a sample line.
	SampleRoundTrip CheckFunc
	// InputFiles are corpus or report paths to verify on disk.
	InputFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark. A nil check is
// reported as skipped.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	runCheck(&res, w, "codec parameters", cfg.CodecParams)
	runCheck(&res, w, "preprocessor", cfg.Preprocessor)
	runCheck(&res, w, "sample round trip", cfg.SampleRoundTrip)

	for _, path := range cfg.InputFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("input file %q: %v", path, err))
			fmt.Fprintf(w, "%s input file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s input file: %s\n", PassMark, path)
		}
	}

	return res
}

func runCheck(res *Result, w io.Writer, name string, check CheckFunc) {
	if check == nil {
		fmt.Fprintf(w, "%s %s: skipped\n", PassMark, name)
		return
	}
	detail, err := check()
	if err != nil {
		res.fail(fmt.Sprintf("%s: %v", name, err))
		fmt.Fprintf(w, "%s %s: %v\n", FailMark, name, err)
		return
	}
	fmt.Fprintf(w, "%s %s: %s\n", PassMark, name, detail)
}
