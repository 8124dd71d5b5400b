package config

import (
	"fmt"
	"strings"

	"github.com/example/go-postproc/internal/text"
)

func NormalizeMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		mode = text.ModeRules
	}
	switch mode {
	case text.ModeRules, text.ModeSentencePiece:
		return mode, nil
	case "rule":
		return text.ModeRules, nil
	case "sp", "spm":
		return text.ModeSentencePiece, nil
	default:
		return "", fmt.Errorf(
			"invalid preprocess mode %q (expected %s|%s|sp)",
			raw,
			text.ModeRules,
			text.ModeSentencePiece,
		)
	}
}
