package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// RecruiterSystemPrompt frames every summary request
const RecruiterSystemPrompt = "You are a recruit consultant."

const recruitPromptTemplate = `以下はとある企業の採用ページである。事業内容と会社の魅力からその企業が採用すべき人材のスキルと価値観を%d字程度の日本語で答えてください。
========
%s
========
`

// BuildRecruitPrompt asks for a summary of about summaryChars characters of
// the first contentChars characters of a recruiting page.
func BuildRecruitPrompt(content string, contentChars, summaryChars int) string {
	runes := []rune(content)
	if contentChars > 0 && len(runes) > contentChars {
		runes = runes[:contentChars]
	}
	return fmt.Sprintf(recruitPromptTemplate, summaryChars, string(runes))
}

// BrowseService summarizes recruiting pages
type BrowseService struct {
	fetcher      Fetcher
	completer    domain.Completer
	contentChars int
	summaryChars int
	temperature  float32
	logger       *zap.Logger
}

// NewBrowseService creates a new browse service
func NewBrowseService(fetcher Fetcher, completer domain.Completer, contentChars, summaryChars int, temperature float32, logger *zap.Logger) *BrowseService {
	if contentChars <= 0 {
		contentChars = 1000
	}
	if summaryChars <= 0 {
		summaryChars = 300
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowseService{
		fetcher:      fetcher,
		completer:    completer,
		contentChars: contentChars,
		summaryChars: summaryChars,
		temperature:  temperature,
		logger:       logger,
	}
}

// Summarize scrapes url and asks the model which people the company should
// hire. Each call is independent of earlier ones.
func (s *BrowseService) Summarize(ctx context.Context, url string) (*domain.BrowseResult, error) {
	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("Scrape failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	completion, err := s.completer.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: RecruiterSystemPrompt},
		{Role: domain.RoleUser, Content: BuildRecruitPrompt(content, s.contentChars, s.summaryChars)},
	}, s.temperature)
	if err != nil {
		return nil, err
	}

	return &domain.BrowseResult{
		URL:     url,
		Summary: completion.Text,
		Content: content,
		Cost:    completion.Cost,
	}, nil
}
