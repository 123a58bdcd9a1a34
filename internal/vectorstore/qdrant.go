package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// Payload keys, laid out like the LangChain Qdrant integration so existing
// collections stay readable.
const (
	payloadContent  = "page_content"
	payloadMetadata = "metadata"
)

// QdrantConfig addresses a Qdrant server over gRPC.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Qdrant is a Backend on a Qdrant server with cosine distance.
type Qdrant struct {
	client *qdrant.Client
}

func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		// the server version check logs through slog, which would draw over the TUI
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant %s:%d: %w", domain.ErrConnection, cfg.Host, cfg.Port, err)
	}
	return &Qdrant{client: client}, nil
}

func (q *Qdrant) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return classifyQdrant(err)
	}
	if !exists {
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		// lost a race with another creator, whose size still has to match
		if status.Code(err) != codes.AlreadyExists {
			return classifyQdrant(err)
		}
	}

	info, err := q.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return classifyQdrant(err)
	}
	return checkVectorSize(name, info, dim)
}

// checkVectorSize rejects collections whose single unnamed vector does not
// have dim dimensions.
func checkVectorSize(name string, info *qdrant.CollectionInfo, dim int) error {
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return fmt.Errorf("%w: collection %q has no unnamed vector", domain.ErrInvalidRequest, name)
	}
	if params.GetSize() != uint64(dim) {
		return fmt.Errorf("%w: collection %q has dimension %d, want %d",
			domain.ErrInvalidRequest, name, params.GetSize(), dim)
	}
	return nil
}

// Insert upserts all records in one request and waits for them to be applied.
func (q *Qdrant) Insert(ctx context.Context, name string, records []Record) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = toPoint(r)
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	return classifyQdrant(err)
}

func (q *Qdrant) Query(ctx context.Context, name string, vector []float32, k int) (domain.RetrievalResult, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classifyQdrant(err)
	}

	out := make(domain.RetrievalResult, len(points))
	for i, p := range points {
		out[i] = fromScoredPoint(p)
	}
	return out, nil
}

func (q *Qdrant) Count(ctx context.Context, name string) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classifyQdrant(err)
	}
	return int(n), nil
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}

func toPoint(r Record) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewID(r.ID),
		Vectors: qdrant.NewVectors(r.Vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			payloadContent: r.Chunk.Text,
			payloadMetadata: map[string]any{
				domain.MetadataKeySource:     r.Chunk.Source,
				domain.MetadataKeyChunkIndex: r.Chunk.Index,
			},
		}),
	}
}

func fromScoredPoint(p *qdrant.ScoredPoint) domain.ScoredChunk {
	payload := p.GetPayload()
	meta := payload[payloadMetadata].GetStructValue().GetFields()
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			Text:   payload[payloadContent].GetStringValue(),
			Source: meta[domain.MetadataKeySource].GetStringValue(),
			Index:  int(meta[domain.MetadataKeyChunkIndex].GetIntegerValue()),
		},
		Score: float64(p.GetScore()),
	}
}

// classifyQdrant maps transport failures to ErrConnection and missing
// collections to ErrNotFound.
func classifyQdrant(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: qdrant: %w", domain.ErrConnection, err)
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: qdrant: %w", domain.ErrConnection, err)
	case codes.NotFound:
		return fmt.Errorf("%w: qdrant: %w", domain.ErrNotFound, err)
	}
	return fmt.Errorf("qdrant: %w", err)
}
