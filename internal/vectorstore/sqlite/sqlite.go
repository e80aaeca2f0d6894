// Package sqlite persists the vector index to a single SQLite file so it
// survives restarts. Searches are served from an in-memory snapshot that is
// loaded on Open and republished after every Replace.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"learnrag/internal/domain"
	"learnrag/internal/vectorstore"
	"learnrag/internal/vectorstore/memory"
)

var _ vectorstore.Storage = (*Storage)(nil)

// FileName is the database file created inside the index directory.
const FileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq         INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	topic       TEXT NOT NULL,
	subtopic    TEXT NOT NULL,
	url         TEXT NOT NULL,
	platform    TEXT NOT NULL,
	description TEXT NOT NULL,
	source_repo TEXT NOT NULL,
	text        TEXT NOT NULL,
	vector      BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Info describes the most recent build stored in the database.
type Info struct {
	BuildID   string
	Embedder  string
	Dimension int
	Count     int
	BuiltAt   time.Time
}

// Storage is a SQLite-backed vector store.
type Storage struct {
	db       *sql.DB
	path     string
	embedder string
	mem      *memory.Storage
}

// Open opens (or creates) dir/index.db and loads any stored entries.
// embedder names the embedding backend recorded with each build.
func Open(ctx context.Context, dir, embedder string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s := &Storage{db: db, path: path, embedder: embedder, mem: memory.NewStorage()}
	if err := s.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Replace(ctx context.Context, entries []vectorstore.Entry) error {
	dim := 0
	for _, e := range entries {
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return domain.ErrDimensionMismatch
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries
		(seq, name, topic, subtopic, url, platform, description, source_repo, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range entries {
		r := e.Document.Resource
		if _, err := stmt.ExecContext(ctx, i, r.Name, r.Topic, r.Subtopic, r.URL,
			string(r.Platform), r.Description, r.SourceRepo, e.Document.Text,
			encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("inserting entry %d: %w", i, err)
		}
	}

	meta := map[string]string{
		"build_id":  uuid.NewString(),
		"embedder":  s.embedder,
		"dimension": fmt.Sprint(dim),
		"count":     fmt.Sprint(len(entries)),
		"built_at":  time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return s.mem.Replace(ctx, entries)
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	return s.mem.Search(ctx, vector, topK)
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	return s.mem.Count(ctx)
}

// Info returns the metadata of the last build. A database that was never
// built returns a zero Info.
func (s *Storage) Info(ctx context.Context) (Info, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return Info{}, fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()
	var info Info
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Info{}, err
		}
		switch k {
		case "build_id":
			info.BuildID = v
		case "embedder":
			info.Embedder = v
		case "dimension":
			_, _ = fmt.Sscan(v, &info.Dimension)
		case "count":
			_, _ = fmt.Sscan(v, &info.Count)
		case "built_at":
			info.BuiltAt, _ = time.Parse(time.RFC3339, v)
		}
	}
	return info, rows.Err()
}

func (s *Storage) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, topic, subtopic, url, platform,
		description, source_repo, text, vector FROM entries ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	defer rows.Close()
	var entries []vectorstore.Entry
	for rows.Next() {
		var (
			r        domain.Resource
			platform string
			text     string
			blob     []byte
		)
		if err := rows.Scan(&r.Name, &r.Topic, &r.Subtopic, &r.URL, &platform,
			&r.Description, &r.SourceRepo, &text, &blob); err != nil {
			return fmt.Errorf("scanning entry: %w", err)
		}
		r.Platform = domain.Platform(platform)
		vec, err := decodeVector(blob)
		if err != nil {
			return err
		}
		entries = append(entries, vectorstore.Entry{
			Vector:   vec,
			Document: domain.IndexedDocument{Text: text, Resource: r},
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return s.mem.Replace(ctx, entries)
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, errors.New("corrupt vector blob")
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}
