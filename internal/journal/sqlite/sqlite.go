package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"remindme/internal/journal"
)

type SQLiteJournal struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteJournal(dbPath string) journal.Journal {
	return &SQLiteJournal{dbPath: dbPath}
}

const createEntriesTableSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	kind TEXT NOT NULL,
	reminder_id TEXT,
	title TEXT,
	notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries (timestamp);
CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries (kind);
`

func (j *SQLiteJournal) Init(ctx context.Context) error {
	dir := filepath.Dir(j.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create journal directory %s: %w", dir, err)
	}

	log.Printf("Initializing journal database at: %s", j.dbPath)
	db, err := sql.Open("sqlite3", j.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}
	j.db = db

	// SQLite behaves best with a single writer connection.
	j.db.SetMaxOpenConns(1)
	j.db.SetMaxIdleConns(1)
	j.db.SetConnMaxLifetime(time.Minute * 5)

	if err := j.db.PingContext(ctx); err != nil {
		j.db.Close()
		return fmt.Errorf("failed to ping journal database: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, createEntriesTableSQL); err != nil {
		j.db.Close()
		return fmt.Errorf("failed to create entries table: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Record(ctx context.Context, e journal.Entry) (int64, error) {
	query := `INSERT INTO entries (timestamp, kind, reminder_id, title, notes)
	          VALUES (?, ?, ?, ?, ?)`
	res, err := j.db.ExecContext(ctx, query, e.Timestamp, e.Kind, e.ReminderID, e.Title, e.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

func (j *SQLiteJournal) Recent(ctx context.Context, limit int, kinds ...journal.Kind) ([]journal.Entry, error) {
	query := `SELECT id, timestamp, kind, reminder_id, title, notes FROM entries`
	var args []interface{}

	if len(kinds) > 0 {
		placeholders := strings.Repeat("?,", len(kinds)-1) + "?"
		query += fmt.Sprintf(" WHERE kind IN (%s)", placeholders)
		for _, k := range kinds {
			args = append(args, k)
		}
	}

	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var e journal.Entry
		var reminderID, title, notes sql.NullString

		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &reminderID, &title, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		e.ReminderID = reminderID.String
		e.Title = title.String
		e.Notes = notes.String
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}

	return entries, nil
}

func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		log.Println("Closing journal database.")
		return j.db.Close()
	}
	return nil
}
