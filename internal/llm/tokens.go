package llm

import (
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates prompt sizes with the cl100k_base encoding.
// A counter whose codec failed to load falls back to a length heuristic.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter loads the cl100k_base codec.
func NewTokenCounter() *TokenCounter {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		log.Warn().Err(err).Msg("Tokenizer unavailable, using length estimate")
		return &TokenCounter{}
	}
	return &TokenCounter{codec: codec}
}

// Count returns the number of tokens in text.
func (t *TokenCounter) Count(text string) int {
	if t.codec == nil {
		return (len(text) + 3) / 4
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}
