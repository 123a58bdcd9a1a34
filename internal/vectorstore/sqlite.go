package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// SQLite stores vectors as JSON next to their chunk text and ranks them by
// brute-force cosine similarity. It suits local use with modest corpora.
type SQLite struct {
	db *sqlx.DB
	// serializes writers; SQLite allows one at a time
	mu sync.Mutex
}

// NewSQLite migrates the vector tables into db.
func NewSQLite(db *sqlx.DB) (*SQLite, error) {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS vectors (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			chunk_index INTEGER NOT NULL DEFAULT 0,
			embedding TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vectors_collection ON vectors(collection)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return nil, fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return &SQLite{db: db}, nil
}

type vectorRow struct {
	ID         string `db:"id"`
	Content    string `db:"content"`
	Source     string `db:"source"`
	ChunkIndex int    `db:"chunk_index"`
	Embedding  string `db:"embedding"`
}

func (s *SQLite) EnsureCollection(ctx context.Context, name string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, dimension, created_at) VALUES (?, ?, ?)`,
		name, dim, time.Now()); err != nil {
		return err
	}

	var existing int
	if err := s.db.GetContext(ctx, &existing, `SELECT dimension FROM collections WHERE name = ?`, name); err != nil {
		return err
	}
	if existing != dim {
		return fmt.Errorf("%w: collection %q has dimension %d, not %d", domain.ErrInvalidRequest, name, existing, dim)
	}
	return nil
}

// Insert writes all records in one transaction.
func (s *SQLite) Insert(ctx context.Context, name string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var dim int
	err = tx.GetContext(ctx, &dim, `SELECT dimension FROM collections WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	if err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO vectors (id, collection, content, source, chunk_index, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: vector has dimension %d, collection expects %d", domain.ErrEmbedding, len(r.Vector), dim)
		}
		embedding, err := json.Marshal(r.Vector)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.ID, name, r.Chunk.Text, r.Chunk.Source, r.Chunk.Index, string(embedding), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Query(ctx context.Context, name string, vector []float32, k int) (domain.RetrievalResult, error) {
	var rows []vectorRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, content, source, chunk_index, embedding
		FROM vectors WHERE collection = ?
		ORDER BY rowid ASC
	`, name); err != nil {
		return nil, err
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		var v []float32
		if err := json.Unmarshal([]byte(row.Embedding), &v); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", row.ID, err)
		}
		records[i] = Record{
			ID:     row.ID,
			Chunk:  domain.Chunk{Text: row.Content, Source: row.Source, Index: row.ChunkIndex},
			Vector: v,
		}
	}
	return rank(records, vector, k), nil
}

func (s *SQLite) Count(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM vectors WHERE collection = ?`, name)
	return n, err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
