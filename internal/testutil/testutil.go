// Package testutil provides shared skip helpers and fixtures for tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    path := testutil.RequireSentencePieceModel(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SentencePieceModelEnv names the environment variable that overrides the
// SentencePiece model location.
const SentencePieceModelEnv = "POSTPROC_SP_MODEL"

// RequireSentencePieceModel returns the path of a SentencePiece model, or
// skips the test. It checks POSTPROC_SP_MODEL first, then walks up from the
// working directory looking for models/tokenizer.model.
func RequireSentencePieceModel(tb testing.TB) string {
	tb.Helper()

	if p := os.Getenv(SentencePieceModelEnv); p != "" {
		_, err := os.Stat(p)
		if err == nil {
			return p
		}

		tb.Skipf("SentencePiece model not found at %s=%q", SentencePieceModelEnv, p)

		return ""
	}

	dir, err := filepath.Abs(".")
	if err != nil {
		tb.Skipf("resolve working directory: %v", err)

		return ""
	}

	for {
		candidate := filepath.Join(dir, "models", "tokenizer.model")

		_, err = os.Stat(candidate)
		if err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	tb.Skipf("models/tokenizer.model not found; set %s to override", SentencePieceModelEnv)

	return ""
}

// WriteCorpus writes lines to a temporary corpus file, one per line, and
// returns its path.
func WriteCorpus(tb testing.TB, lines ...string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "corpus.txt")

	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}

	err := os.WriteFile(path, data, 0o600)
	if err != nil {
		tb.Fatalf("write corpus %q: %v", path, err)
	}

	return path
}
