package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/config"
	"github.com/example/go-postproc/internal/label"
	"github.com/example/go-postproc/internal/text"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 20,
		workers:        0,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the maximum accepted request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithWorkers bounds the number of requests processed at once. Zero means
// unbounded.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request processing deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	enc  *codec.Encoder
	dec  *codec.Decoder
	pre  text.Preprocessor
	opts options
	sem  chan struct{}
	log  *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, POST /v1/label and
// POST /v1/decode. pre may be nil, in which case line requests are rejected.
func NewHandler(enc *codec.Encoder, dec *codec.Decoder, pre text.Preprocessor, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		enc:  enc,
		dec:  dec,
		pre:  pre,
		opts: opts,
		log:  opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/v1/label", h.handleLabel)
	mux.HandleFunc("/v1/decode", h.handleDecode)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type labelRequest struct {
	Line      string   `json:"line"`
	Raw       string   `json:"raw"`
	Processed []string `json:"processed"`
}

type charJSON struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Index int    `json:"index"`
}

type spanJSON struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type labelResponse struct {
	Chars []charJSON `json:"chars"`
	Spans []spanJSON `json:"spans"`
}

func (h *handler) handleLabel(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	switch {
	case req.Line != "" && req.Raw != "":
		writeError(w, http.StatusBadRequest, "line and raw are mutually exclusive")
		return
	case req.Line == "" && req.Raw == "":
		writeError(w, http.StatusBadRequest, "line or raw field is required")
		return
	case req.Raw != "" && len(req.Processed) == 0:
		writeError(w, http.StatusBadRequest, "processed field is required with raw")
		return
	case req.Line != "" && h.pre == nil:
		writeError(w, http.StatusBadRequest, "line requests are not enabled")
		return
	}

	var resp labelResponse
	err := h.run(r.Context(), "label", func() error {
		var chars []label.Char
		var spans []label.Span
		if req.Line != "" {
			a, err := h.pre.Process(req.Line)
			if err != nil {
				return clientError{err}
			}
			doc, err := h.enc.EncodeAlignment(a)
			if err != nil {
				return err
			}
			chars, spans = doc.Chars, doc.Spans
		} else {
			unit, err := h.enc.EncodeToken(req.Raw, req.Processed, 0)
			if err != nil {
				return err
			}
			chars, spans = unit.Chars, unit.Spans
		}

		var err error
		resp, err = h.labelResponse(chars, spans)
		return err
	})
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	h.log.InfoContext(r.Context(), "label complete",
		slog.Int("chars", len(resp.Chars)),
		slog.Int("spans", len(resp.Spans)),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) labelResponse(chars []label.Char, spans []label.Span) (labelResponse, error) {
	params := h.enc.Params()
	resp := labelResponse{
		Chars: make([]charJSON, len(chars)),
		Spans: make([]spanJSON, len(spans)),
	}
	for i, c := range chars {
		wire, err := params.FormatLabel(c.Gold)
		if err != nil {
			return labelResponse{}, unprocessable{fmt.Errorf("char %d: %w", c.Index, err)}
		}
		resp.Chars[i] = charJSON{Text: c.Text, Label: wire, Index: c.Index}
	}
	for i, s := range spans {
		resp.Spans[i] = spanJSON(s)
	}
	return resp, nil
}

type decodeRequest struct {
	Chars  []string `json:"chars"`
	Labels []string `json:"labels"`
}

type decodeResponse struct {
	Text   string        `json:"text"`
	Tokens []codec.Token `json:"tokens"`
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	if len(req.Chars) != len(req.Labels) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("chars and labels differ in length (%d != %d)", len(req.Chars), len(req.Labels)))
		return
	}

	var tokens []codec.Token
	err := h.run(r.Context(), "decode", func() error {
		var err error
		tokens, err = h.dec.DecodeLabels(req.Chars, req.Labels)
		if err != nil {
			return clientError{err}
		}
		return nil
	})
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	if tokens == nil {
		tokens = []codec.Token{}
	}
	h.log.InfoContext(r.Context(), "decode complete",
		slog.Int("chars", len(req.Chars)),
		slog.Int("tokens", len(tokens)),
	)
	writeJSON(w, http.StatusOK, decodeResponse{Text: codec.Detokenize(tokens), Tokens: tokens})
}

// decodeRequest enforces POST and the body limit and decodes JSON into v.
// It reports whether the handler should continue.
func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	body := http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// clientError marks a failure caused by the request content.
type clientError struct{ error }

func (e clientError) Unwrap() error { return e.error }

// unprocessable marks a result that cannot be expressed in wire form.
type unprocessable struct{ error }

func (e unprocessable) Unwrap() error { return e.error }

// run executes fn under a worker slot and the request timeout. The slot is
// held until fn returns, even when the request has already timed out.
func (h *handler) run(ctx context.Context, op string, fn func() error) error {
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		if h.sem != nil {
			defer func() { <-h.sem }()
		}
		done <- fn()
	}()

	select {
	case err := <-done:
		h.log.DebugContext(ctx, "request processed",
			slog.String("op", op),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *handler) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	var ce clientError
	var up unprocessable
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), "request timed out",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.As(err, &ce):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &up):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:             cfg,
		logger:          logger,
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler builds the request handler from the configuration.
func (s *Server) Handler() (http.Handler, error) {
	params, err := s.cfg.CodecParams()
	if err != nil {
		return nil, err
	}
	enc, err := codec.NewEncoder(params, s.logger)
	if err != nil {
		return nil, err
	}
	dec, err := codec.NewDecoder(params)
	if err != nil {
		return nil, err
	}

	preOpts, err := s.cfg.Preprocess.Options()
	if err != nil {
		return nil, err
	}
	pre, err := text.NewPreprocessor(preOpts)
	if err != nil {
		return nil, fmt.Errorf("initialize preprocessor: %w", err)
	}

	return NewHandler(enc, dec, pre,
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithWorkers(s.cfg.Server.Workers),
		WithLogger(s.logger),
	), nil
}

func (s *Server) Start(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
