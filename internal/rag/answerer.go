package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// DefaultK is the number of chunks retrieved when the caller does not say.
const DefaultK = 3

// systemTemplate is the chat layout of the "stuff" question-answering
// prompt: instructions and context go to the system message, the question
// goes to the user message on its own.
const systemTemplate = `Use the following pieces of context to answer the user's question.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
----------------
%s`

// BuildMessages stuffs the retrieved texts, most similar first, into the
// system message and asks question as the user.
func BuildMessages(contexts []string, question string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(systemTemplate, strings.Join(contexts, "\n\n"))},
		{Role: domain.RoleUser, Content: question},
	}
}

// Answerer answers questions from the chunks closest to them.
type Answerer struct {
	store       domain.VectorStore
	completer   domain.Completer
	temperature float32
	defaultK    int
	logger      *zap.Logger
}

// NewAnswerer creates an answerer. defaultK <= 0 means DefaultK.
func NewAnswerer(store domain.VectorStore, completer domain.Completer, temperature float32, defaultK int, logger *zap.Logger) *Answerer {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		store:       store,
		completer:   completer,
		temperature: temperature,
		defaultK:    defaultK,
		logger:      logger,
	}
}

// Answer retrieves up to k chunks and asks the model to answer from them.
// An empty store still produces a model answer with an empty context.
func (a *Answerer) Answer(ctx context.Context, query string, k int) (domain.AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidRequest)
	}
	if k <= 0 {
		k = a.defaultK
	}

	sources, err := a.store.Search(ctx, query, k)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("retrieve: %w", err)
	}

	completion, err := a.completer.Complete(ctx, BuildMessages(sources.Texts(), query), a.temperature)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("answer: %w", err)
	}

	a.logger.Debug("question answered",
		zap.Int("sources", len(sources)),
		zap.Float64("cost", completion.Cost),
	)
	return domain.AnswerResult{
		Query:   query,
		Answer:  completion.Text,
		Sources: sources,
		Cost:    completion.Cost,
	}, nil
}
