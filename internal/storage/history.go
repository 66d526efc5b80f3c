package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed transcription.
type Record struct {
	SessionID       string    `json:"session_id"`
	OriginalFile    string    `json:"original_file"`
	ProcessedFormat string    `json:"processed_format"`
	Transcript      string    `json:"transcript"`
	Confidence      float64   `json:"confidence"`
	ResultCount     int       `json:"result_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryDB persists transcription results in SQLite.
type HistoryDB struct {
	db *sql.DB
}

// NewHistoryDB opens (and if needed initializes) the database at dbPath.
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		original_file TEXT NOT NULL,
		processed_format TEXT NOT NULL,
		transcript TEXT NOT NULL,
		confidence REAL,
		result_count INTEGER,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at ON transcriptions(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &HistoryDB{db: db}, nil
}

// Save inserts a completed transcription.
func (h *HistoryDB) Save(rec *Record) error {
	query := `
	INSERT INTO transcriptions (session_id, original_file, processed_format, transcript, confidence, result_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := h.db.Exec(query, rec.SessionID, rec.OriginalFile, rec.ProcessedFormat,
		rec.Transcript, rec.Confidence, rec.ResultCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save transcription: %w", err)
	}
	return nil
}

// Get returns one transcription by session id.
func (h *HistoryDB) Get(sessionID string) (*Record, error) {
	query := `
	SELECT session_id, original_file, processed_format, transcript, confidence, result_count, created_at
	FROM transcriptions WHERE session_id = ?
	`
	var rec Record
	err := h.db.QueryRow(query, sessionID).Scan(
		&rec.SessionID, &rec.OriginalFile, &rec.ProcessedFormat,
		&rec.Transcript, &rec.Confidence, &rec.ResultCount, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcription: %w", err)
	}
	return &rec, nil
}

// List returns the most recent transcriptions, newest first.
func (h *HistoryDB) List(limit int) ([]*Record, error) {
	query := `
	SELECT session_id, original_file, processed_format, transcript, confidence, result_count, created_at
	FROM transcriptions ORDER BY created_at DESC LIMIT ?
	`
	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.SessionID, &rec.OriginalFile, &rec.ProcessedFormat,
			&rec.Transcript, &rec.Confidence, &rec.ResultCount, &rec.CreatedAt); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}
