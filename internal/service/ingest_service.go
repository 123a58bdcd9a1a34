package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/rag"
	"github.com/liliang-cn/askpdf/internal/source"
)

// Fetcher returns the text content of a web page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// IngestService turns uploads, local files and web pages into stored chunks
type IngestService struct {
	pipeline      *rag.Pipeline
	fetcher       Fetcher
	maxUploadSize int64
	logger        *zap.Logger
}

// NewIngestService creates a new ingest service. maxUploadSize <= 0 means
// no limit.
func NewIngestService(pipeline *rag.Pipeline, fetcher Fetcher, maxUploadSize int64, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		pipeline:      pipeline,
		fetcher:       fetcher,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// UploadDocument extracts and ingests an uploaded file
func (s *IngestService) UploadDocument(ctx context.Context, file *multipart.FileHeader) (*domain.IngestResult, error) {
	fileType := source.DetectFileType(file.Filename)
	if !source.IsSupported(fileType) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidRequest, fileType)
	}
	if s.maxUploadSize > 0 && file.Size > s.maxUploadSize {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d", domain.ErrInvalidRequest, file.Size, s.maxUploadSize)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	doc, err := source.Read(file.Filename, src)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, doc)
}

// IngestFile ingests a document from disk
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	doc, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, doc)
}

// IngestURL scrapes a web page and ingests its main content
func (s *IngestService) IngestURL(ctx context.Context, url string) (*domain.IngestResult, error) {
	text, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, domain.Document{Text: text, Source: url})
}

func (s *IngestService) ingest(ctx context.Context, doc domain.Document) (*domain.IngestResult, error) {
	res, err := s.pipeline.Ingest(ctx, doc)
	if err != nil {
		s.logger.Error("Ingestion failed", zap.String("source", doc.Source), zap.Error(err))
		return nil, err
	}
	return &res, nil
}
