// Package postgres persists the vector index in PostgreSQL so that several
// processes can share one index.
//
// Embeddings are stored as real[] columns; similarity search still happens
// in process, so no database extension is required. Several indexes can
// live in one database, each under its own store ID.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// DefaultStoreID names the index when none is configured.
const DefaultStoreID = "default"

const schema = `
CREATE TABLE IF NOT EXISTS regbot_index_manifest (
    store_id        TEXT PRIMARY KEY,
    embedding_model TEXT        NOT NULL,
    dimensions      INTEGER     NOT NULL,
    chunk_size      INTEGER     NOT NULL,
    chunk_overlap   INTEGER     NOT NULL,
    document_id     TEXT        NOT NULL,
    source_uri      TEXT        NOT NULL,
    chunk_count     INTEGER     NOT NULL,
    built_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS regbot_index_chunks (
    store_id     TEXT    NOT NULL,
    ordinal      INTEGER NOT NULL,
    chunk_id     TEXT    NOT NULL,
    document_id  TEXT    NOT NULL,
    text         TEXT    NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset   INTEGER NOT NULL,
    first_page   INTEGER NOT NULL DEFAULT 0,
    last_page    INTEGER NOT NULL DEFAULT 0,
    embedding    REAL[],
    PRIMARY KEY (store_id, ordinal)
);`

// Store is a PostgreSQL-backed driven.IndexStore.
type Store struct {
	pool    *pgxpool.Pool
	storeID string
	host    string
}

// NewStore connects to dsn and ensures the schema exists.
func NewStore(ctx context.Context, dsn, storeID string) (*Store, error) {
	if storeID == "" {
		storeID = DefaultStoreID
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{pool: pool, storeID: storeID, host: cfg.ConnConfig.Host}, nil
}

// Location identifies the database and store ID without credentials.
func (s *Store) Location() string {
	return fmt.Sprintf("postgres://%s/%s", s.host, s.storeID)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Exists reports whether a manifest is saved under the store ID.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM regbot_index_manifest WHERE store_id = $1)`, s.storeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check manifest: %w", err)
	}
	return exists, nil
}

// Remove deletes the index under the store ID.
func (s *Store) Remove(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx remove index: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.deleteAll(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit remove index: %w", err)
	}
	return nil
}

func (s *Store) deleteAll(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `DELETE FROM regbot_index_chunks WHERE store_id = $1`, s.storeID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM regbot_index_manifest WHERE store_id = $1`, s.storeID); err != nil {
		return fmt.Errorf("delete manifest: %w", err)
	}
	return nil
}

// Save atomically replaces the index under the store ID.
func (s *Store) Save(ctx context.Context, manifest domain.IndexManifest, chunks []domain.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx save index: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.deleteAll(ctx, tx); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
INSERT INTO regbot_index_manifest (store_id, embedding_model, dimensions, chunk_size, chunk_overlap,
    document_id, source_uri, chunk_count, built_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.storeID, manifest.EmbeddingModel, manifest.Dimensions, manifest.ChunkSize, manifest.Overlap,
		manifest.DocumentID, manifest.SourceURI, manifest.ChunkCount, manifest.BuiltAt,
	)
	if err != nil {
		return fmt.Errorf("insert manifest: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
INSERT INTO regbot_index_chunks (store_id, ordinal, chunk_id, document_id, text,
    start_offset, end_offset, first_page, last_page, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			s.storeID, c.Ordinal, c.ID, c.DocumentID, c.Text,
			c.Locator.Start, c.Locator.End, c.Locator.FirstPage, c.Locator.LastPage, c.Embedding,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	return nil
}

// Load returns the manifest and chunks in ordinal order.
// Returns domain.ErrNotFound when nothing is saved under the store ID.
func (s *Store) Load(ctx context.Context) (*domain.IndexManifest, []domain.Chunk, error) {
	var m domain.IndexManifest
	err := s.pool.QueryRow(ctx, `
SELECT embedding_model, dimensions, chunk_size, chunk_overlap,
       document_id, source_uri, chunk_count, built_at
FROM regbot_index_manifest WHERE store_id = $1`, s.storeID,
	).Scan(&m.EmbeddingModel, &m.Dimensions, &m.ChunkSize, &m.Overlap,
		&m.DocumentID, &m.SourceURI, &m.ChunkCount, &m.BuiltAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
SELECT chunk_id, document_id, ordinal, text, start_offset, end_offset,
       first_page, last_page, embedding
FROM regbot_index_chunks
WHERE store_id = $1
ORDER BY ordinal ASC`, s.storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, m.ChunkCount)
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &c.Text,
			&c.Locator.Start, &c.Locator.End, &c.Locator.FirstPage, &c.Locator.LastPage,
			&c.Embedding); err != nil {
			return nil, nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return &m, chunks, nil
}
