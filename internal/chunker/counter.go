package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter measures text length in model-token units.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// RuneCounter counts one token per character.
type RuneCounter struct{}

func (RuneCounter) Count(text string) int { return utf8.RuneCountInString(text) }

// WordCounter counts one token per whitespace-separated word.
type WordCounter struct{}

func (WordCounter) Count(text string) int { return len(strings.Fields(text)) }

// TiktokenCounter counts tokens with an OpenAI BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base".
// The BPE ranks are downloaded on first use and cached under TIKTOKEN_CACHE_DIR.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// NewCounter builds a counter by name: "words", "runes" or a tiktoken encoding.
func NewCounter(name string) (Counter, error) {
	switch strings.ToLower(name) {
	case "words":
		return WordCounter{}, nil
	case "runes", "chars":
		return RuneCounter{}, nil
	case "":
		return NewTiktokenCounter("cl100k_base")
	default:
		return NewTiktokenCounter(name)
	}
}
