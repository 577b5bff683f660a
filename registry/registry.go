package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/palmvec/codec"
	"github.com/hupe1980/palmvec/gallery"
	"github.com/hupe1980/palmvec/match"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultDimension is the canonical embedding length.
const DefaultDimension = 512

// Options configures a Registry.
type Options struct {
	Dimension int
	// Codec serializes embeddings. Defaults to codec.Default.
	Codec codec.Codec
	// Hash computes the stored pre-filter key. Defaults to match.SampledHash
	// and must agree with the hash used for lookups.
	Hash func(v []float64) string
	// Now is the clock used for timestamps.
	Now func() time.Time
	// NewID generates record IDs. Defaults to random UUIDs.
	NewID func() string
}

// Record is one enrolled palm.
type Record struct {
	ID        string
	UserID    string
	Embedding []float64
	Hash      string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enrollment is the input to Enroll.
type Enrollment struct {
	UserID    string
	Embedding []float64
	Verified  bool
}

// Registry stores palm records in SQLite.
type Registry struct {
	db   *sql.DB
	opts Options
}

var _ match.CandidateSource = (*Registry)(nil)

// Open opens (or creates) the database at dsn and applies pending migrations.
func Open(dsn string, optFns ...func(o *Options)) (*Registry, error) {
	opts := Options{
		Dimension: DefaultDimension,
		Codec:     codec.Default,
		Now:       time.Now,
		NewID:     uuid.NewString,
		Hash:      match.SampledHash,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Hash == nil {
		opts.Hash = match.SampledHash
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("registry: %s: %w", pragma, err)
		}
	}

	r := &Registry{db: db, opts: opts}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: migrate: %w", err)
	}
	return r, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) migrate() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		if err := r.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}

		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}

func (r *Registry) validate(v []float64) error {
	if len(v) != r.opts.Dimension {
		return fmt.Errorf("%w: %d values, want %d", ErrInvalidEmbedding, len(v), r.opts.Dimension)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidEmbedding, i)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
	}
	return false
}

// Enroll stores a new palm for e.UserID.
// A user that already has a palm gets ErrDuplicateIdentity.
func (r *Registry) Enroll(ctx context.Context, e Enrollment) (Record, error) {
	if e.UserID == "" {
		return Record{}, fmt.Errorf("%w: empty user id", ErrInvalidEmbedding)
	}
	if err := r.validate(e.Embedding); err != nil {
		return Record{}, err
	}

	blob, err := codec.EncodeEmbedding(r.opts.Codec, e.Embedding)
	if err != nil {
		return Record{}, fmt.Errorf("registry: encode embedding: %w", err)
	}

	now := r.opts.Now().UTC()
	rec := Record{
		ID:        r.opts.NewID(),
		UserID:    e.UserID,
		Embedding: append([]float64(nil), e.Embedding...),
		Hash:      r.opts.Hash(e.Embedding),
		Verified:  e.Verified,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO palms (id, user_id, embedding, palm_hash, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(blob), rec.Hash, rec.Verified, now.UnixNano(), now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, fmt.Errorf("%w: user %q", ErrDuplicateIdentity, e.UserID)
		}
		return Record{}, fmt.Errorf("registry: enroll: %w", err)
	}
	return rec, nil
}

// ReplaceEmbedding stores a new embedding for an existing user and clears
// the verified flag.
func (r *Registry) ReplaceEmbedding(ctx context.Context, userID string, embedding []float64) error {
	if err := r.validate(embedding); err != nil {
		return err
	}
	blob, err := codec.EncodeEmbedding(r.opts.Codec, embedding)
	if err != nil {
		return fmt.Errorf("registry: encode embedding: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE palms SET embedding = ?, palm_hash = ?, verified = 0, updated_at = ? WHERE user_id = ?`,
		string(blob), r.opts.Hash(embedding), r.opts.Now().UTC().UnixNano(), userID)
	if err != nil {
		return fmt.Errorf("registry: replace embedding: %w", err)
	}
	return expectOne(res, userID)
}

// SetVerified changes the verified flag of a user's palm.
func (r *Registry) SetVerified(ctx context.Context, userID string, verified bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE palms SET verified = ?, updated_at = ? WHERE user_id = ?`,
		verified, r.opts.Now().UTC().UnixNano(), userID)
	if err != nil {
		return fmt.Errorf("registry: set verified: %w", err)
	}
	return expectOne(res, userID)
}

func expectOne(res sql.Result, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %q", ErrNotFound, userID)
	}
	return nil
}

// Delete removes a user's palm. Missing users are ErrNotFound.
func (r *Registry) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM palms WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("registry: delete: %w", err)
	}
	return expectOne(res, userID)
}

const selectColumns = `id, user_id, embedding, palm_hash, verified, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (r *Registry) scanRecord(row scanner) (Record, error) {
	var (
		rec              Record
		blob             string
		created, updated int64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &blob, &rec.Hash, &rec.Verified, &created, &updated); err != nil {
		return Record{}, err
	}
	v, err := codec.DecodeEmbedding(r.opts.Codec, []byte(blob), r.opts.Dimension)
	if err != nil {
		return Record{}, fmt.Errorf("registry: decode embedding of %q: %w", rec.UserID, err)
	}
	rec.Embedding = v
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}

// Get returns the palm of userID.
func (r *Registry) Get(ctx context.Context, userID string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM palms WHERE user_id = ?`, userID)
	rec, err := r.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: user %q", ErrNotFound, userID)
	}
	return rec, err
}

func (r *Registry) query(ctx context.Context, where string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM palms `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("registry: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// List returns every record in enrollment order.
func (r *Registry) List(ctx context.Context) ([]Record, error) {
	return r.query(ctx, "")
}

// Count returns the number of enrolled palms and how many are verified.
func (r *Registry) Count(ctx context.Context) (total, verified int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(verified), 0) FROM palms`).Scan(&total, &verified)
	return total, verified, err
}

func toCandidates(recs []Record) []match.Candidate {
	out := make([]match.Candidate, len(recs))
	for i, rec := range recs {
		out[i] = match.Candidate{ID: rec.UserID, Vector: rec.Embedding}
	}
	return out
}

// FetchVerifiedCandidates returns verified palms in enrollment order.
func (r *Registry) FetchVerifiedCandidates(ctx context.Context) ([]match.Candidate, error) {
	recs, err := r.query(ctx, "WHERE verified = 1")
	if err != nil {
		return nil, err
	}
	return toCandidates(recs), nil
}

// CandidatesByHash returns verified palms whose sampled hash equals hash.
func (r *Registry) CandidatesByHash(ctx context.Context, hash string) ([]match.Candidate, error) {
	recs, err := r.query(ctx, "WHERE verified = 1 AND palm_hash = ?", hash)
	if err != nil {
		return nil, err
	}
	return toCandidates(recs), nil
}

// Export copies every record into a new gallery keyed by user ID.
func (r *Registry) Export(ctx context.Context) (*gallery.Gallery, error) {
	recs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	g := gallery.New(func(o *gallery.Options) {
		o.Dimension = r.opts.Dimension
		o.Hash = r.opts.Hash
	})
	for _, rec := range recs {
		if err := g.Upsert(gallery.Record{ID: rec.UserID, Vector: rec.Embedding, Verified: rec.Verified}); err != nil {
			return nil, fmt.Errorf("registry: export %q: %w", rec.UserID, err)
		}
	}
	return g, nil
}
