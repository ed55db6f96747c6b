// Package store persists the kiosk's knowledge base in SQLite. The
// document set is written wholesale by offline ingestion and read in full
// at query time; there is no per-row update path.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kalambet/docent/internal/retrieval"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the works table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database in dataDir and applies pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "docent.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func parseMigrationVersion(name string) (int, error) {
	base := strings.TrimSuffix(name, ".sql")
	idx := strings.Index(base, "_")
	if idx < 0 {
		idx = len(base)
	}
	version, err := strconv.Atoi(base[:idx])
	if err != nil {
		return 0, fmt.Errorf("migration %s has no numeric prefix: %w", name, err)
	}
	return version, nil
}

// FetchAll returns every retrievable document. Rows without an embedding
// are skipped: only embedded documents are eligible for retrieval.
// Satisfies retrieval.Source.
func (s *Store) FetchAll(ctx context.Context) ([]retrieval.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT keywords, artist, artist_intro_cn, artist_intro_en,
		       work_title_cn, work_title_en, work_desc_cn, work_desc_en, embedding
		FROM works ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying works: %w", err)
	}
	defer rows.Close()

	var docs []retrieval.Document
	for rows.Next() {
		var d retrieval.Document
		var blob []byte
		if err := rows.Scan(&d.Keywords, &d.Artist, &d.ArtistIntroCN, &d.ArtistIntroEN,
			&d.WorkTitleCN, &d.WorkTitleEN, &d.WorkDescCN, &d.WorkDescEN, &blob); err != nil {
			return nil, fmt.Errorf("scanning work: %w", err)
		}
		if len(blob) == 0 {
			continue
		}
		embedding, err := decodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %q: %w", d.Artist, err)
		}
		d.Embedding = embedding
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ReplaceAll replaces the whole document set in one transaction, matching
// the wholesale re-ingestion lifecycle: readers see either the old set or
// the new one.
func (s *Store) ReplaceAll(ctx context.Context, docs []retrieval.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM works"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing works: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO works (id, seq, keywords, artist, artist_intro_cn, artist_intro_en,
		                   work_title_cn, work_title_en, work_desc_cn, work_desc_en,
		                   embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, d := range docs {
		var blob []byte
		if len(d.Embedding) > 0 {
			blob = encodeFloat32s(d.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), i, d.Keywords, d.Artist,
			d.ArtistIntroCN, d.ArtistIntroEN, d.WorkTitleCN, d.WorkTitleEN,
			d.WorkDescCN, d.WorkDescEN, blob, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting work %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored works, embedded or not.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM works").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting works: %w", err)
	}
	return n, nil
}

// encodeFloat32s packs a vector as little-endian float32 bytes.
func encodeFloat32s(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s unpacks little-endian float32 bytes.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
