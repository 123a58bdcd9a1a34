// Package chunker splits document text into overlapping, token-bounded chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// DefaultSeparators are tried in order: paragraph, line, CJK sentence and
// clause marks, space, then single characters.
var DefaultSeparators = []string{"\n\n", "\n", "。", "、", " ", ""}

// Splitter recursively splits text on a prioritized separator list until
// every chunk fits ChunkSize tokens.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	Counter      Counter
}

// New validates the configuration and returns a Splitter.
func New(chunkSize, chunkOverlap int, separators []string, counter Counter) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidRequest, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidRequest, chunkOverlap, chunkSize)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	if counter == nil {
		counter = RuneCounter{}
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   separators,
		Counter:      counter,
	}, nil
}

// Split returns the chunks of text in document order.
func (s *Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if s.Counter.Count(text) <= s.ChunkSize {
		return []string{text}, nil
	}
	return s.split(text, s.Separators)
}

// Chunk splits a document and tags each chunk with its source and position.
func (s *Splitter) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	texts, err := s.Split(doc.Text)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{Text: t, Source: doc.Source, Index: i}
	}
	return chunks, nil
}

func (s *Splitter) split(text string, separators []string) ([]string, error) {
	// A separator that does not occur in text would yield the whole text as a
	// single oversized piece, so the first occurring one is chosen.
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			rest = nil
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var chunks, fitting []string
	for _, piece := range splitOn(text, separator) {
		if s.Counter.Count(piece) <= s.ChunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, separator)...)
			fitting = nil
		}
		switch {
		case len(rest) > 0:
			sub, err := s.split(piece, rest)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, sub...)
		case separator == "":
			// a single character wider than the bound, nothing left to cut
			chunks = append(chunks, piece)
		default:
			return nil, fmt.Errorf("%w: piece of %d tokens exceeds %d with no separators left",
				domain.ErrChunkingDegenerate, s.Counter.Count(piece), s.ChunkSize)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, separator)...)
	}
	return chunks, nil
}

// merge packs pieces into chunks of at most ChunkSize tokens, starting each
// new chunk with up to ChunkOverlap tokens from the end of the previous one.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := s.Counter.Count(separator)

	var docs, current []string
	total := 0
	for _, piece := range pieces {
		n := s.Counter.Count(piece)
		if total+n+joinCost(current, sepLen) > s.ChunkSize && len(current) > 0 {
			if doc := join(current, separator); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > s.ChunkOverlap || total+n+joinCost(current, sepLen) > s.ChunkSize) {
				total -= s.Counter.Count(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := join(current, separator); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinCost(current []string, sepLen int) int {
	if len(current) > 0 {
		return sepLen
	}
	return 0
}

func join(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

func splitOn(text, separator string) []string {
	var raw []string
	if separator == "" {
		raw = make([]string, 0, len(text))
		for _, r := range text {
			raw = append(raw, string(r))
		}
	} else {
		raw = strings.Split(text, separator)
	}
	pieces := raw[:0]
	for _, p := range raw {
		// runes keep their spaces, they are content between neighbours
		if p == "" || (separator != "" && strings.TrimSpace(p) == "") {
			continue
		}
		pieces = append(pieces, p)
	}
	return pieces
}
