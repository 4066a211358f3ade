package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/threadharvest/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "threadharvest.db"

var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrDigestMismatch is returned when a stored artifact no longer
	// matches its recorded digest.
	ErrDigestMismatch = errors.New("stored artifact does not match its digest")
)

// RunDB stores the history of harvesting runs.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (r *RunDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *RunDB) Close() error {
	return r.db.Close()
}

func (r *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		artifact_path TEXT NOT NULL DEFAULT '',
		source_count INTEGER NOT NULL,
		post_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		digest TEXT NOT NULL,
		artifact_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per source of a run, in run order
	CREATE TABLE IF NOT EXISTS run_sources (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		post_count INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run.
type RunRecord struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   time.Time
	ArtifactPath string
	SourceCount  int
	PostCount    int
	FailedCount  int

	// Digest is the hex SHA3-256 of the stored artifact JSON.
	Digest string

	// Sources is only populated by GetRun.
	Sources []SourceRecord
}

// SourceRecord is the stored outcome of one source of a run.
type SourceRecord struct {
	Name      string
	Kind      model.SourceKind
	PostCount int
	Error     string
	Duration  time.Duration
}

// Digest returns the hex-encoded SHA3-256 of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveRun stores a finished run and returns its ID.
func (r *RunDB) SaveRun(ctx context.Context, summary *model.RunSummary) (int64, error) {
	artifact := summary.Artifact
	if artifact == nil {
		artifact = model.NewRunArtifact()
	}
	artifactJSON, err := json.Marshal(artifact)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize artifact: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, artifact_path, source_count, post_count, failed_count, digest, artifact_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.FinishedAt),
		summary.ArtifactPath,
		len(summary.Outcomes),
		summary.TotalPosts(),
		summary.FailedCount(),
		Digest(artifactJSON),
		string(artifactJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for i, o := range summary.Outcomes {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO run_sources (run_id, position, name, kind, post_count, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			runID, i, o.Name, string(o.Kind), len(o.Posts), o.ErrorMessage(), o.Duration.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("failed to insert source %q: %w", o.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (r *RunDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, artifact_path, source_count, post_count, failed_count, digest
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		var (
			rec               RunRecord
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.ArtifactPath,
			&rec.SourceCount, &rec.PostCount, &rec.FailedCount, &rec.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its sources and its verified artifact.
func (r *RunDB) GetRun(ctx context.Context, id int64) (*RunRecord, *model.RunArtifact, error) {
	var (
		rec               RunRecord
		started, finished string
		artifactJSON      string
	)
	err := r.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, artifact_path, source_count, post_count, failed_count, digest, artifact_json
	FROM runs
	WHERE id = ?
	`, id).Scan(&rec.ID, &started, &finished, &rec.ArtifactPath,
		&rec.SourceCount, &rec.PostCount, &rec.FailedCount, &rec.Digest, &artifactJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run: %w", err)
	}
	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)

	if Digest([]byte(artifactJSON)) != rec.Digest {
		return nil, nil, fmt.Errorf("run %d: %w", id, ErrDigestMismatch)
	}
	artifact := model.NewRunArtifact()
	if err := json.Unmarshal([]byte(artifactJSON), artifact); err != nil {
		return nil, nil, fmt.Errorf("failed to decode artifact of run %d: %w", id, err)
	}

	sources, err := r.runSources(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rec.Sources = sources
	return &rec, artifact, nil
}

func (r *RunDB) runSources(ctx context.Context, runID int64) ([]SourceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT name, kind, post_count, error, duration_ms
	FROM run_sources
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := make([]SourceRecord, 0)
	for rows.Next() {
		var (
			src  SourceRecord
			kind string
			ms   int64
		)
		if err := rows.Scan(&src.Name, &kind, &src.PostCount, &src.Error, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		src.Kind = model.SourceKind(kind)
		src.Duration = time.Duration(ms) * time.Millisecond
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// DeleteRun removes a run and its sources.
func (r *RunDB) DeleteRun(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// storedTimeLayout is fixed-width so stored timestamps sort lexically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts each known format and returns the zero time if
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
