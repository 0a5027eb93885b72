// Package storage persists monitoring results, timer sessions and
// tasks in SQLite. The contract is last-write-wins with no uniqueness
// enforcement beyond caller-supplied IDs; callers treat writes as
// best-effort and a failed save never affects classification
// correctness.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"myfocus/internal/model"
)

// resultRetention is how long monitoring history is kept. Older rows
// are pruned on every append.
const resultRetention = 30 * 24 * time.Hour

// Store handles persistence.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS monitoring_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	focus_state TEXT NOT NULL,
	application_name TEXT,
	window_title TEXT,
	ocr_text TEXT,
	analysis TEXT,
	confidence REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_timestamp ON monitoring_results(timestamp);

CREATE TABLE IF NOT EXISTS focus_sessions (
	id TEXT PRIMARY KEY,
	session_type TEXT NOT NULL,
	status TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	elapsed_seconds INTEGER NOT NULL,
	task_id TEXT,
	started_at DATETIME,
	paused_at DATETIME,
	completed_at DATETIME,
	interruptions INTEGER DEFAULT 0,
	notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON focus_sessions(started_at);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	priority TEXT NOT NULL,
	completed INTEGER DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// New opens (and if necessary creates) the database under baseDir.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "myfocus.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendResult appends one monitoring result to history and prunes
// rows past the retention window.
func (s *Store) AppendResult(r model.MonitoringResult) error {
	_, err := s.db.Exec(`
		INSERT INTO monitoring_results
			(timestamp, focus_state, application_name, window_title, ocr_text, analysis, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Timestamp, string(r.FocusState), r.ApplicationName, r.WindowTitle, r.OCRText, r.Analysis, r.Confidence)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	cutoff := time.Now().UTC().Add(-resultRetention)
	if _, err := s.db.Exec(`DELETE FROM monitoring_results WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("prune results: %w", err)
	}
	return nil
}

// LoadResults returns results since the given time, oldest first.
func (s *Store) LoadResults(since time.Time) ([]model.MonitoringResult, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, focus_state, application_name, window_title, ocr_text, analysis, confidence
		FROM monitoring_results
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.MonitoringResult
	for rows.Next() {
		var r model.MonitoringResult
		var state string
		if err := rows.Scan(&r.Timestamp, &state, &r.ApplicationName, &r.WindowTitle,
			&r.OCRText, &r.Analysis, &r.Confidence); err != nil {
			return nil, err
		}
		r.FocusState = model.FocusState(state)
		r.Timestamp = r.Timestamp.UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveSession upserts a finished or in-flight timer session.
func (s *Store) SaveSession(session *model.FocusSession) error {
	_, err := s.db.Exec(`
		INSERT INTO focus_sessions
			(id, session_type, status, duration_minutes, elapsed_seconds, task_id,
			 started_at, paused_at, completed_at, interruptions, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			elapsed_seconds = excluded.elapsed_seconds,
			paused_at = excluded.paused_at,
			completed_at = excluded.completed_at,
			interruptions = excluded.interruptions,
			notes = excluded.notes
	`, session.ID, string(session.SessionType), string(session.Status),
		session.DurationMinutes, session.ElapsedSeconds, session.TaskID,
		session.StartedAt, session.PausedAt, session.CompletedAt,
		session.Interruptions, session.Notes)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSessions returns sessions started since the given time, newest
// first.
func (s *Store) LoadSessions(since time.Time) ([]*model.FocusSession, error) {
	rows, err := s.db.Query(`
		SELECT id, session_type, status, duration_minutes, elapsed_seconds, task_id,
		       started_at, paused_at, completed_at, interruptions, notes
		FROM focus_sessions
		WHERE started_at >= ?
		ORDER BY started_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.FocusSession
	for rows.Next() {
		var sess model.FocusSession
		var sessionType, status string
		if err := rows.Scan(&sess.ID, &sessionType, &status, &sess.DurationMinutes,
			&sess.ElapsedSeconds, &sess.TaskID, &sess.StartedAt, &sess.PausedAt,
			&sess.CompletedAt, &sess.Interruptions, &sess.Notes); err != nil {
			return nil, err
		}
		sess.SessionType = model.SessionType(sessionType)
		sess.Status = model.SessionStatus(status)
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// SaveTask upserts a task.
func (s *Store) SaveTask(task *model.Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, title, priority, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			priority = excluded.priority,
			completed = excluded.completed,
			updated_at = excluded.updated_at
	`, task.ID, task.Title, string(task.Priority), task.Completed, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// LoadTasks returns all tasks, oldest first.
func (s *Store) LoadTasks() ([]*model.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, title, priority, completed, created_at, updated_at
		FROM tasks
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		var t model.Task
		var priority string
		if err := rows.Scan(&t.ID, &t.Title, &priority, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Priority = model.TaskPriority(priority)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// CurrentTaskTitle returns the title of the first unfinished task, or
// "" when every task is done. Used by the classifier's prompt.
func (s *Store) CurrentTaskTitle() (string, error) {
	tasks, err := s.LoadTasks()
	if err != nil {
		return "", err
	}
	if t := model.CurrentTask(tasks); t != nil {
		return t.Title, nil
	}
	return "", nil
}
