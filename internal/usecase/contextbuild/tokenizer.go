package contextbuild

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// TokenCounter counts language-model tokens in text.
type TokenCounter interface {
	Count(text string) int
}

// fallbackCharsPerToken approximates token counts when no encoding is
// available. Intentionally conservative for English prose.
const fallbackCharsPerToken = 4

// Counter counts tokens with a model-specific tiktoken encoding.
// When the encoding cannot be loaded it degrades to a fixed
// characters-per-token approximation instead of failing requests.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a token counter for the given model.
func NewCounter(model string, logger *zap.Logger) *Counter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("Tokenizer unavailable, using character approximation",
			zap.String("model", model), zap.Error(err))
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.enc == nil {
		return (len(text) + fallbackCharsPerToken - 1) / fallbackCharsPerToken
	}
	return len(c.enc.Encode(text, nil, nil))
}
