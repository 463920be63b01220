package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	reason      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS counters (
	run_id TEXT NOT NULL REFERENCES runs(id),
	name   TEXT NOT NULL,
	value  INTEGER NOT NULL,
	PRIMARY KEY (run_id, name)
);`

// Run — запись об одном запуске бота.
type Run struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time // нулевое — запуск не завершён (или процесс упал)
	Reason     string
	Error      string
}

// Store — SQLite-хранилище запусков и счётчиков. Прогресс игры не хранится.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("stats db path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// StartRun создаёт запись о запуске и возвращает её id (UUIDv7, сортируется по времени).
func (s *Store) StartRun(ctx context.Context, mode string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`,
		id.String(), mode, toMillis(s.now()))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id.String(), nil
}

// FinishRun фиксирует причину остановки и фатальную ошибку, если была.
func (s *Store) FinishRun(ctx context.Context, runID, reason string, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, reason = ?, error = ? WHERE id = ?`,
		toMillis(s.now()), reason, errText, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// SaveCounters перезаписывает счётчики запуска снимком.
func (s *Store) SaveCounters(ctx context.Context, runID string, snapshot map[string]int64) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range Names(snapshot) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO counters (run_id, name, value) VALUES (?, ?, ?)
			 ON CONFLICT (run_id, name) DO UPDATE SET value = excluded.value`,
			runID, name, snapshot[name])
		if err != nil {
			return fmt.Errorf("upsert counter %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit counters: %w", err)
	}
	return nil
}

// Totals суммирует счётчики по всем запускам.
func (s *Store) Totals(ctx context.Context) (map[string]int64, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name, SUM(value) FROM counters GROUP BY name`)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// Runs возвращает последние запуски, новые первыми.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, mode, started_at, finished_at, reason, error
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Mode, &started, &finished, &r.Reason, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = fromMillis(started)
		if finished.Valid {
			r.FinishedAt = fromMillis(finished.Int64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
