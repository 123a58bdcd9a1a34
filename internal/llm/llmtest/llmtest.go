// Package llmtest provides deterministic stand-ins for the embedding and
// completion providers.
package llmtest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// HashEmbedder maps every lower-cased word to a hashed dimension, so texts
// sharing words have positive cosine similarity.
type HashEmbedder struct {
	Dim int
	Err error

	mu    sync.Mutex
	calls int
}

// NewHashEmbedder returns an embedder with dim dimensions.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: dim}
}

func (e *HashEmbedder) Dimension() int { return e.Dim }

// Calls returns how many embedding requests were made.
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, e.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(e.Dim)]++
	}
	return v
}

// Completer is a scripted chat completion provider that records every call.
type Completer struct {
	// Reply computes the answer; when nil, Text is returned.
	Reply func(messages []domain.ChatMessage) string
	Text  string
	Cost  float64
	Err   error
	// Started, when set, receives a value as each call begins.
	Started chan struct{}
	// Release, when set, must yield a value before a call returns.
	Release chan struct{}

	mu    sync.Mutex
	calls [][]domain.ChatMessage
	temps []float32
}

func (c *Completer) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float32) (domain.Completion, error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]domain.ChatMessage(nil), messages...))
	c.temps = append(c.temps, temperature)
	c.mu.Unlock()

	if c.Started != nil {
		c.Started <- struct{}{}
	}
	if c.Release != nil {
		select {
		case <-c.Release:
		case <-ctx.Done():
			return domain.Completion{}, ctx.Err()
		}
	}
	if c.Err != nil {
		return domain.Completion{}, c.Err
	}

	text := c.Text
	if c.Reply != nil {
		text = c.Reply(messages)
	}
	return domain.Completion{Text: text, Model: "scripted", Cost: c.Cost}, nil
}

// Calls returns a copy of the message lists received so far.
func (c *Completer) Calls() [][]domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]domain.ChatMessage(nil), c.calls...)
}

// LastCall returns the messages of the most recent call, or nil.
func (c *Completer) LastCall() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return c.calls[len(c.calls)-1]
}

// Temperatures returns the temperature of each call.
func (c *Completer) Temperatures() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.temps...)
}
