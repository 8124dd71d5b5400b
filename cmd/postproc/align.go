package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/report"
	"github.com/spf13/cobra"
)

func newAlignCmd() *cobra.Command {
	var raw string
	var processed []string

	cmd := &cobra.Command{
		Use:     "align",
		Short:   "Print the labels of one raw token against its processed tokens",
		Example: "  postproc align --raw \"Don't\" --processed do --processed \"n't\"",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if raw == "" {
				return fmt.Errorf("--raw is required")
			}
			if len(processed) == 0 {
				return fmt.Errorf("at least one --processed token is required")
			}

			params, err := cfg.CodecParams()
			if err != nil {
				return err
			}
			return runAlign(params, raw, processed, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&raw, "raw", "", "Raw token")
	cmd.Flags().StringArrayVar(&processed, "processed", nil, "Processed token (repeatable, in order)")

	return cmd
}

func runAlign(params codec.Params, raw string, processed []string, stdout, stderr io.Writer) error {
	enc, err := codec.NewEncoder(params, slog.New(slog.NewTextHandler(stderr, nil)))
	if err != nil {
		return err
	}

	unit, err := enc.EncodeToken(raw, processed, 0)
	if err != nil {
		return err
	}

	w := report.NewWriter(stdout, params)
	if err := w.WriteDocument(unit.Chars); err != nil {
		return err
	}
	return w.Flush()
}
