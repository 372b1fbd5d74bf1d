package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteLedger is the SQLite implementation of Ledger.
type sqliteLedger struct {
	db     *sql.DB
	logger *log.Logger
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS processed_dirs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

// NewSQLiteLedger opens (creating if needed) the ledger database.
func NewSQLiteLedger(dataSourceName string, logger *log.Logger) (Ledger, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create processed_dirs table: %w", err)
	}
	logger.Printf("SQLite ledger initialized at: %s", dataSourceName)
	return &sqliteLedger{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *sqliteLedger) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MarkProcessed records a directory as fully split.
func (s *sqliteLedger) MarkProcessed(dirPath string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO processed_dirs (path, processed_at) VALUES (?, ?)", dirPath, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark %s as processed: %w", dirPath, err)
	}
	s.logger.Printf("Directory %s marked as processed.", dirPath)
	return nil
}

// IsProcessed reports whether a directory was already split.
func (s *sqliteLedger) IsProcessed(dirPath string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM processed_dirs WHERE path = ?", dirPath).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed status for %s: %w", dirPath, err)
	}
	return count > 0, nil
}
