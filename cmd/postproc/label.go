package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/config"
	"github.com/example/go-postproc/internal/corpus"
	"github.com/example/go-postproc/internal/report"
	"github.com/example/go-postproc/internal/text"
	"github.com/spf13/cobra"
)

func newLabelCmd() *cobra.Command {
	var in string
	var out string

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Encode a line corpus into an answer report",
		Long: "Reads one document per line, splits every raw token into processed tokens,\n" +
			"and writes the labeled characters as a tab-separated answer report.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			r, err := openInput(in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := createOutput(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if err := runLabel(cfg, r, w, slog.Default()); err != nil {
				_ = w.Close()
				return err
			}
			return w.Close()
		},
	}

	cmd.Flags().StringVar(&in, "in", "-", "Corpus path, one document per line ('-' for stdin)")
	cmd.Flags().StringVar(&out, "out", "-", "Report path ('-' for stdout)")

	return cmd
}

func runLabel(cfg config.Config, r io.Reader, w io.Writer, logger *slog.Logger) error {
	params, err := cfg.CodecParams()
	if err != nil {
		return err
	}
	enc, err := codec.NewEncoder(params, logger)
	if err != nil {
		return err
	}

	preOpts, err := cfg.Preprocess.Options()
	if err != nil {
		return err
	}
	pre, err := text.NewPreprocessor(preOpts)
	if err != nil {
		return fmt.Errorf("initialize preprocessor: %w", err)
	}

	reader := corpus.NewReader(r, pre, enc, cfg.Corpus.ReaderOptions())
	writer := report.NewWriter(w, params)

	var docs, chars, spans int
	for {
		doc, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if err := writer.WriteDocument(doc.Chars); err != nil {
			return fmt.Errorf("line %d: write report: %w", reader.Line(), err)
		}
		docs++
		chars += len(doc.Chars)
		spans += len(doc.Spans)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("label complete",
		slog.Int("documents", docs),
		slog.Int("chars", chars),
		slog.Int("unmanageable_spans", spans),
	)
	return nil
}
