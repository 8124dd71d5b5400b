package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/config"
	"github.com/example/go-postproc/internal/doctor"
	"github.com/example/go-postproc/internal/text"
	"github.com/spf13/cobra"
)

const doctorSample = "Don't stop!"

func newDoctorCmd() *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local configuration and codec checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			result := doctor.Run(doctorConfig(cfg, inputs), cmd.OutOrStdout())
			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}
				return errors.New("doctor checks failed")
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Corpus or report file to verify (repeatable)")

	return cmd
}

func doctorConfig(cfg config.Config, inputs []string) doctor.Config {
	return doctor.Config{
		CodecParams: func() (string, error) {
			p, err := cfg.CodecParams()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("delimiter %q, whitespace %q", p.Delimiter, p.WhitespaceSentinel), nil
		},
		Preprocessor: func() (string, error) {
			opts, err := cfg.Preprocess.Options()
			if err != nil {
				return "", err
			}
			if _, err := text.NewPreprocessor(opts); err != nil {
				return "", err
			}
			return opts.Mode, nil
		},
		SampleRoundTrip: func() (string, error) {
			return sampleRoundTrip(cfg)
		},
		InputFiles: inputs,
	}
}

// sampleRoundTrip labels doctorSample against its own preprocessing and
// decodes the gold labels back to surface text.
func sampleRoundTrip(cfg config.Config) (string, error) {
	params, err := cfg.CodecParams()
	if err != nil {
		return "", err
	}
	opts, err := cfg.Preprocess.Options()
	if err != nil {
		return "", err
	}
	pre, err := text.NewPreprocessor(opts)
	if err != nil {
		return "", err
	}

	a, err := pre.Process(doctorSample)
	if err != nil {
		return "", err
	}
	enc, err := codec.NewEncoder(params, nil)
	if err != nil {
		return "", err
	}
	doc, err := enc.EncodeAlignment(a)
	if err != nil {
		return "", err
	}
	dec, err := codec.NewDecoder(params)
	if err != nil {
		return "", err
	}
	tokens, err := dec.Decode(doc.Chars, codec.Gold)
	if err != nil {
		return "", err
	}

	if got := codec.Detokenize(tokens); got != doctorSample {
		return "", fmt.Errorf("decoded %q; want %q", got, doctorSample)
	}

	return fmt.Sprintf("%d chars", len(doc.Chars)), nil
}
