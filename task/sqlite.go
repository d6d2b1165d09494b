package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	keyTasks  = "tasks"
	keyNextID = "nextId"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteBackend stores the snapshot as two rows of a key/value table: the
// JSON-encoded task list and the decimal id counter.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) a SQLite database at dbPath and ensures
// the key/value table exists. The caller is responsible for calling Close.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	backend, err := NewSQLiteBackendFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

// NewSQLiteBackendFromDB wraps an already opened database.
func NewSQLiteBackendFromDB(db *sql.DB) (*SQLiteBackend, error) {
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close releases the underlying database connection.
func (b *SQLiteBackend) Close() error { return b.db.Close() }

func (b *SQLiteBackend) Persistent() bool { return true }

func (b *SQLiteBackend) Load(ctx context.Context) (Snapshot, error) {
	snap := emptySnapshot()

	rawTasks, found, err := b.get(ctx, keyTasks)
	if err != nil {
		return Snapshot{}, err
	}
	if found {
		if err := json.Unmarshal([]byte(rawTasks), &snap.Tasks); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", keyTasks, err)
		}
	}

	rawNext, found, err := b.get(ctx, keyNextID)
	if err != nil {
		return Snapshot{}, err
	}
	if found {
		next, err := strconv.ParseInt(rawNext, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", keyNextID, err)
		}
		snap.NextID = next
	}

	return snap.normalize(), nil
}

func (b *SQLiteBackend) Save(ctx context.Context, snap Snapshot) error {
	snap = snap.normalize()
	tasks, err := json.Marshal(snap.Tasks)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyTasks, err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsert = `INSERT INTO kv(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := tx.ExecContext(ctx, upsert, keyTasks, string(tasks)); err != nil {
		return fmt.Errorf("write %s: %w", keyTasks, err)
	}
	if _, err := tx.ExecContext(ctx, upsert, keyNextID, strconv.FormatInt(snap.NextID, 10)); err != nil {
		return fmt.Errorf("write %s: %w", keyNextID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}
