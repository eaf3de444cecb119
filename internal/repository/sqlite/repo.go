// Package sqlite is an embedded idea repository for single-instance deployments.
// It has no vector index: matching over it ranks in-process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
)

var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

const schema = `
CREATE TABLE IF NOT EXISTS ideas (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	tags       TEXT NOT NULL DEFAULT '[]',
	authors    TEXT NOT NULL,
	public     INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	vector     BLOB
);
CREATE INDEX IF NOT EXISTS ideas_created_at ON ideas(created_at DESC);
CREATE TABLE IF NOT EXISTS idea_authors (
	idea_id TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
	author  TEXT NOT NULL,
	PRIMARY KEY (idea_id, author)
);
CREATE INDEX IF NOT EXISTS idea_authors_author ON idea_authors(author);
`

const selectColumns = `SELECT id, title, content, tags, authors, public, created_at, vector FROM ideas`

// Repo stores ideas in a SQLite database file.
type Repo struct {
	db    *sql.DB
	newID func() string
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Repo, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repo{db: db, newID: uuid.NewString}, nil
}

// Ping checks that the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Create persists a new idea under a freshly assigned ID.
func (r *Repo) Create(ctx context.Context, i domidea.Idea) (domidea.Idea, error) {
	stored := i.WithID(r.newID())

	tags, err := json.Marshal(nonNil(stored.Tags()))
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("marshal tags: %w", err)
	}
	authors, err := json.Marshal(stored.Authors())
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("marshal authors: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ideas(id, title, content, tags, authors, public, created_at, vector) VALUES(?,?,?,?,?,?,?,?)`,
		stored.ID(), stored.Title(), stored.Content(), string(tags), string(authors),
		stored.Public(), stored.CreatedAt().UnixMilli(), encodeVector(stored.Vector()),
	)
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("insert idea: %w", err)
	}
	for _, a := range stored.Authors() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO idea_authors(idea_id, author) VALUES(?,?)`, stored.ID(), a); err != nil {
			return domidea.Idea{}, fmt.Errorf("insert author: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domidea.Idea{}, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// Get returns an idea by ID.
func (r *Repo) Get(ctx context.Context, id string) (domidea.Idea, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	i, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domidea.Idea{}, fmt.Errorf("idea %s: %w", id, domain.ErrNotFound)
	}
	return i, err
}

// List returns up to limit ideas, newest first, including the viewer's private ones.
func (r *Repo) List(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		WHERE public = 1 OR id IN (SELECT idea_id FROM idea_authors WHERE author = ?)
		ORDER BY created_at DESC LIMIT ?`, viewer, limit)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return collect(rows)
}

// UpdateTags rewrites the tags of an existing idea.
func (r *Repo) UpdateTags(ctx context.Context, id string, tags []string) (domidea.Idea, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return domidea.Idea{}, err
	}
	updated := current.WithTags(tags)

	data, err := json.Marshal(nonNil(updated.Tags()))
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE ideas SET tags = ? WHERE id = ?`, string(data), id); err != nil {
		return domidea.Idea{}, fmt.Errorf("update tags: %w", err)
	}
	return updated, nil
}

// ListWithVectors returns every stored idea that carries an embedding.
func (r *Repo) ListWithVectors(ctx context.Context) ([]domidea.Idea, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE vector IS NOT NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list ideas with vectors: %w", err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdea(s scanner) (domidea.Idea, error) {
	var (
		id, title, content, tagsJSON, authorsJSON string
		public                                    bool
		createdAt                                 int64
		vector                                    []byte
	)
	if err := s.Scan(&id, &title, &content, &tagsJSON, &authorsJSON, &public, &createdAt, &vector); err != nil {
		return domidea.Idea{}, err
	}

	var tags, authors []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return domidea.Idea{}, fmt.Errorf("decode tags of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(authorsJSON), &authors); err != nil {
		return domidea.Idea{}, fmt.Errorf("decode authors of %s: %w", id, err)
	}

	return domidea.Reconstruct(id, title, content, tags, authors, public,
		time.UnixMilli(createdAt).UTC(), decodeVector(vector)), nil
}

func collect(rows *sql.Rows) ([]domidea.Idea, error) {
	defer func() { _ = rows.Close() }()

	var out []domidea.Idea
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return out, nil
}

// encodeVector stores the embedding as little-endian float32; nil stays NULL.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
