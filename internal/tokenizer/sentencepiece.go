package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// ErrEmptyPath is returned when NewSentencePieceSegmenter is called with an empty path.
var ErrEmptyPath = errors.New("tokenizer model path must not be empty")

// wordStart is the SentencePiece word-start marker (U+2581).
const wordStart = "▁"

// SentencePieceSegmenter implements Segmenter using a pure-Go UNIGRAM SentencePiece model.
type SentencePieceSegmenter struct {
	proc   gosp.Sentencepiece
	pieces []string // piece text by id; empty for control and unknown pieces
}

// NewSentencePieceSegmenter loads a SentencePiece model from the given path.
// When lowercase is set the model lower-cases its input before segmenting.
func NewSentencePieceSegmenter(modelPath string, lowercase bool) (*SentencePieceSegmenter, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	proc, err := gosp.NewSentencepieceFromFile(modelPath, lowercase)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", modelPath, err)
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read sentencepiece model %q: %w", modelPath, err)
	}

	pieces, err := pieceTable(data)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece vocabulary %q: %w", modelPath, err)
	}

	return &SentencePieceSegmenter{proc: proc, pieces: pieces}, nil
}

// pieceTable maps piece ids to their surface text. Pieces that never appear
// in text (control and unknown symbols) map to "".
func pieceTable(data []byte) ([]string, error) {
	var model gosp.ModelProto
	if err := proto.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("unmarshal sentencepiece model: %w", err)
	}

	pieces := make([]string, len(model.GetPieces()))
	for i, piece := range model.GetPieces() {
		switch piece.GetType() {
		case gosp.ModelProto_SentencePiece_NORMAL, gosp.ModelProto_SentencePiece_USER_DEFINED:
			pieces[i] = piece.GetPiece()
		}
	}

	return pieces, nil
}

// Segment tokenizes word and returns its non-empty pieces with the
// word-start marker removed.
func (s *SentencePieceSegmenter) Segment(word string) ([]string, error) {
	if word == "" {
		return []string{}, nil
	}

	ids := s.proc.TokenizeToIDs(word)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if int(id) < 0 || int(id) >= len(s.pieces) {
			return nil, fmt.Errorf("piece id %d outside vocabulary of %d", id, len(s.pieces))
		}
		piece := strings.ReplaceAll(s.pieces[id], wordStart, "")
		if piece != "" {
			out = append(out, piece)
		}
	}

	return out, nil
}
