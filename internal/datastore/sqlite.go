package datastore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const booksSchema = `
	CREATE TABLE IF NOT EXISTS books (
		isbn TEXT PRIMARY KEY NOT NULL,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		publisher TEXT,
		published_date TEXT,
		synopsis TEXT,
		cover_image_url TEXT,
		oclc_number TEXT,
		pages INTEGER,
		subjects TEXT,
		source TEXT NOT NULL,
		resolved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store writing to dbPath.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Connect opens the database and ensures the books table exists.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(booksSchema); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return fmt.Errorf("failed to create books table: %w (close: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to create books table: %w", err)
	}
	s.db = db
	return nil
}

// SaveRecords upserts records in one transaction so a failed run never
// leaves a partial batch behind.
func (s *SQLiteStore) SaveRecords(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO books
			(isbn, title, author, publisher, published_date, synopsis,
			 cover_image_url, oclc_number, pages, subjects, source, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		subjects, err := json.Marshal(r.Book.Subjects)
		if err != nil {
			return fmt.Errorf("failed to marshal subjects: %w", err)
		}
		if _, err := stmt.Exec(
			r.Book.ISBN, r.Book.Title, r.Book.Author, r.Book.Publisher,
			r.Book.PublishedDate, r.Book.Synopsis, r.Book.CoverImageURL,
			r.Book.OCLCNumber, r.Book.Pages, string(subjects), r.Source,
		); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
