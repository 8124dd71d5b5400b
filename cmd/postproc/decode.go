package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/config"
	"github.com/example/go-postproc/internal/report"
	"github.com/spf13/cobra"
)

type decodeOptions struct {
	Gold   bool // read the GoldAnswer column instead of Answer
	Tokens bool // print processed-token segmentation instead of surface text
}

func newDecodeCmd() *cobra.Command {
	var in string
	var out string
	var opts decodeOptions

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Reconstruct text from an answer report",
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

			if err := runDecode(cfg, r, w, opts, slog.Default()); err != nil {
				_ = w.Close()
				return err
			}
			return w.Close()
		},
	}

	cmd.Flags().StringVar(&in, "in", "-", "Report path ('-' for stdin)")
	cmd.Flags().StringVar(&out, "out", "-", "Output path, one line per document ('-' for stdout)")
	cmd.Flags().BoolVar(&opts.Gold, "gold", false, "Decode the GoldAnswer column instead of Answer")
	cmd.Flags().BoolVar(&opts.Tokens, "tokens", false, "Print space-separated tokens instead of reconstructed text")

	return cmd
}

func runDecode(cfg config.Config, r io.Reader, w io.Writer, opts decodeOptions, logger *slog.Logger) error {
	params, err := cfg.CodecParams()
	if err != nil {
		return err
	}
	dec, err := codec.NewDecoder(params)
	if err != nil {
		return err
	}

	which := codec.Predicted
	if opts.Gold {
		which = codec.Gold
	}

	reader := report.NewReader(r, params)
	docs := 0
	for {
		chars, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		tokens, err := dec.Decode(chars, which)
		if err != nil {
			return fmt.Errorf("document %d: %w", docs+1, err)
		}

		line := codec.Detokenize(tokens)
		if opts.Tokens {
			words := make([]string, len(tokens))
			for i, tok := range tokens {
				words[i] = tok.Text
			}
			line = strings.Join(words, " ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		docs++
	}

	logger.Info("decode complete", slog.Int("documents", docs))
	return nil
}
