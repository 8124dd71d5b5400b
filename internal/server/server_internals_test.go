package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/go-postproc/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- New & WithShutdownTimeout ---

func TestNew_ShutdownTimeoutFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	s := New(cfg, nil)
	if s == nil {
		t.Fatal("New() returned nil")
	}

	if s.shutdownTimeout != 30*time.Second {
		t.Errorf("shutdownTimeout = %v; want 30s", s.shutdownTimeout)
	}

	if s.logger == nil {
		t.Error("logger = nil; want slog.Default()")
	}
}

func TestWithShutdownTimeout_Chaining(t *testing.T) {
	s := New(config.DefaultConfig(), nil)

	returned := s.WithShutdownTimeout(5 * time.Second)
	if returned != s {
		t.Error("WithShutdownTimeout should return the same *Server")
	}

	if s.shutdownTimeout != 5*time.Second {
		t.Errorf("shutdownTimeout = %v; want 5s", s.shutdownTimeout)
	}
}

// --- Handler ---

func TestServerHandler_InvalidCodecConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Codec.Delimiter = "##"

	if _, err := New(cfg, quietLogger()).Handler(); err == nil {
		t.Fatal("Handler() = nil error; want error for multi-rune delimiter")
	}
}

func TestServerHandler_InvalidPreprocessMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Preprocess.Mode = "bpe"

	if _, err := New(cfg, quietLogger()).Handler(); err == nil {
		t.Fatal("Handler() = nil error; want error for unknown mode")
	}
}

func TestServerHandler_MissingSentencePieceModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Preprocess.Mode = "sentencepiece"
	cfg.Preprocess.ModelPath = "/nonexistent/tokenizer.model"

	if _, err := New(cfg, quietLogger()).Handler(); err == nil {
		t.Fatal("Handler() = nil error; want error for missing model")
	}
}

func TestServerHandler_ServesHealth(t *testing.T) {
	h, err := New(config.DefaultConfig(), quietLogger()).Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

// --- run ---

func newInternalHandler(opts ...Option) *handler {
	o := defaultOptions()
	o.logger = quietLogger()
	for _, fn := range opts {
		fn(&o)
	}
	h := &handler{opts: o, log: o.logger}
	if o.workers > 0 {
		h.sem = make(chan struct{}, o.workers)
	}
	return h
}

func TestRun_TimeoutReturnsDeadlineExceeded(t *testing.T) {
	h := newInternalHandler(WithRequestTimeout(20 * time.Millisecond))

	release := make(chan struct{})
	defer close(release)

	err := h.run(context.Background(), "test", func() error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run() error = %v; want context.DeadlineExceeded", err)
	}
}

func TestRun_TimedOutWorkHoldsSlotUntilDone(t *testing.T) {
	h := newInternalHandler(WithWorkers(1), WithRequestTimeout(20*time.Millisecond))

	release := make(chan struct{})
	finished := make(chan struct{})

	err := h.run(context.Background(), "slow", func() error {
		defer close(finished)
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run() error = %v; want context.DeadlineExceeded", err)
	}

	if got := len(h.sem); got != 1 {
		t.Fatalf("slots in use after timeout = %d; want 1", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = h.run(ctx, "blocked", func() error {
		t.Error("fn must not run while the slow call holds the only slot")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second run() error = %v; want context.DeadlineExceeded", err)
	}

	close(release)
	<-finished

	deadline := time.Now().Add(time.Second)
	for len(h.sem) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slot not released after fn returned")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	h := newInternalHandler()
	boom := errors.New("boom")

	err := h.run(context.Background(), "test", func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("run() error = %v; want boom", err)
	}
}

func TestRun_CancelledWhileWaitingForWorker(t *testing.T) {
	h := newInternalHandler(WithWorkers(1))
	h.sem <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.run(ctx, "test", func() error {
		t.Error("fn must not run without a worker slot")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run() error = %v; want context.Canceled", err)
	}
}

// --- writeRunError ---

func TestWriteRunError_StatusCodes(t *testing.T) {
	h := newInternalHandler()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"client", clientError{errors.New("bad")}, http.StatusBadRequest},
		{"unprocessable", unprocessable{errors.New("bad")}, http.StatusUnprocessableEntity},
		{"internal", errors.New("bad"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeRunError(rec, httptest.NewRequest(http.MethodPost, "/v1/label", nil), tt.err)

			if rec.Code != tt.want {
				t.Errorf("status = %d; want %d", rec.Code, tt.want)
			}
		})
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}

		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
