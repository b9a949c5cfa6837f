package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyMessages  = "messages"
	keySessionID = "session_id"
)

// SQLiteStore keeps every namespace in one database, one row per entry.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes come from a single mutation path; one connection keeps them serial.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_ = os.Chmod(dbPath, 0600)

	store := &SQLiteStore{db: db}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) get(namespace, key string) (string, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRow(
		`SELECT value FROM entries WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) put(namespace, key, value string) error {
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO entries (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadMessages(namespace string) ([]Message, error) {
	value, err := s.get(namespace, keyMessages)
	if err != nil {
		return nil, err
	}
	return decodeMessages([]byte(value))
}

func (s *SQLiteStore) SaveMessages(namespace string, messages []Message) error {
	data, err := encodeMessages(messages)
	if err != nil {
		return err
	}
	return s.put(namespace, keyMessages, string(data))
}

func (s *SQLiteStore) LoadSessionID(namespace string) (string, error) {
	id, err := s.get(namespace, keySessionID)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *SQLiteStore) SaveSessionID(namespace, sessionID string) error {
	return s.put(namespace, keySessionID, sessionID)
}

func (s *SQLiteStore) Erase(namespace string) error {
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM entries WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("failed to erase namespace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Namespaces() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT namespace FROM entries ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	defer rows.Close()

	var namespaces []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("failed to scan namespace: %w", err)
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
