package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS lectures (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	person_kind TEXT NOT NULL,
	person_name TEXT NOT NULL,
	record      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_lectures_person ON lectures(person_kind, person_name);
`

// SQLiteStore is the default Recorder: a single local file, no external
// service. SQLite tolerates one writer at a time, so all writes are funneled
// through a single goroutine; reads go straight to the pool.
type SQLiteStore struct {
	db       *sql.DB
	writeCh  chan writeOp
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ Recorder = (*SQLiteStore)(nil)

type writeOp struct {
	run    func(*sql.DB) error
	result chan error
}

// NewSQLiteStore opens (and if needed creates) the store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		writeCh:  make(chan writeOp, 100),
		shutdown: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

func (s *SQLiteStore) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeCh:
			err := op.run(s.db)
			if err != nil {
				slog.Warn("history write failed, retrying", "error", err)
				time.Sleep(5 * time.Second)
				err = op.run(s.db)
			}
			op.result <- err

		case <-s.shutdown:
			return
		}
	}
}

func (s *SQLiteStore) executeWrite(ctx context.Context, run func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("history store is closed")
	}
	s.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case s.writeCh <- writeOp{run: run, result: result}:
		return <-result
	case <-ctx.Done():
		return ctx.Err()
	case <-s.shutdown:
		return fmt.Errorf("history store is shutting down")
	}
}

func (s *SQLiteStore) record(ctx context.Context, kind PersonKind, name string, rec LectureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode lecture record: %w", err)
	}
	return s.executeWrite(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT INTO lectures (person_kind, person_name, record) VALUES (?, ?, ?)",
			string(kind), name, string(data))
		return err
	})
}

func (s *SQLiteStore) RecordStudentLecture(ctx context.Context, name string, rec LectureRecord) error {
	return s.record(ctx, KindStudent, name, rec)
}

func (s *SQLiteStore) RecordProfessorLecture(ctx context.Context, name string, rec LectureRecord) error {
	return s.record(ctx, KindProfessor, name, rec)
}

// FetchLectures returns a person's records in insertion order. An unknown
// name yields an empty list, not an error.
func (s *SQLiteStore) FetchLectures(ctx context.Context, kind PersonKind, name string) ([]LectureRecord, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT record FROM lectures WHERE person_kind = ? AND person_name = ? ORDER BY id",
		string(kind), name)
	if err != nil {
		return nil, fmt.Errorf("failed to query lectures: %w", err)
	}
	defer rows.Close()

	var records []LectureRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan lecture row: %w", err)
		}
		var rec LectureRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode lecture record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close stops the writer and closes the database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()
	return s.db.Close()
}
