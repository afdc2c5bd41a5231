package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/regbot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// DatabaseFile is the file name inside the index directory.
const DatabaseFile = "index.db"

// Store is a SQLite-backed driven.IndexStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the index database in dataDir.
// If dataDir is empty, defaults to ~/.regbot/index.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".regbot", "index")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets queries proceed while a rebuild is written.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Location returns the database file path.
func (s *Store) Location() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Exists reports whether a manifest has been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM manifest").Scan(&n); err != nil {
		return false, fmt.Errorf("counting manifests: %w", err)
	}
	return n > 0, nil
}

// Remove deletes the persisted index.
func (s *Store) Remove(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := clearIndex(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearIndex(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM manifest"); err != nil {
		return fmt.Errorf("deleting manifest: %w", err)
	}
	return nil
}

// Save atomically replaces the persisted index.
func (s *Store) Save(ctx context.Context, manifest domain.IndexManifest, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := clearIndex(ctx, tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO manifest (id, embedding_model, dimensions, chunk_size, chunk_overlap,
			document_id, source_uri, chunk_count, built_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
	`, manifest.EmbeddingModel, manifest.Dimensions, manifest.ChunkSize, manifest.Overlap,
		manifest.DocumentID, manifest.SourceURI, manifest.ChunkCount,
		manifest.BuiltAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, ordinal, text, start_offset, end_offset,
			first_page, last_page, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Ordinal, c.Text,
			c.Locator.Start, c.Locator.End, c.Locator.FirstPage, c.Locator.LastPage,
			float32SliceToBytes(c.Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load returns the manifest and every chunk in ordinal order.
// Returns domain.ErrNotFound when nothing has been saved.
func (s *Store) Load(ctx context.Context) (*domain.IndexManifest, []domain.Chunk, error) {
	var m domain.IndexManifest
	var builtAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT embedding_model, dimensions, chunk_size, chunk_overlap,
			document_id, source_uri, chunk_count, built_at
		FROM manifest WHERE id = 1
	`).Scan(&m.EmbeddingModel, &m.Dimensions, &m.ChunkSize, &m.Overlap,
		&m.DocumentID, &m.SourceURI, &m.ChunkCount, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}
	if m.BuiltAt, err = time.Parse(time.RFC3339Nano, builtAt); err != nil {
		return nil, nil, fmt.Errorf("parsing built_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, ordinal, text, start_offset, end_offset,
			first_page, last_page, embedding
		FROM chunks ORDER BY ordinal
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, m.ChunkCount)
	for rows.Next() {
		var c domain.Chunk
		var embedding []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &c.Text,
			&c.Locator.Start, &c.Locator.End, &c.Locator.FirstPage, &c.Locator.LastPage,
			&embedding); err != nil {
			return nil, nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return &m, chunks, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
