package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	messagesSuffix  = ".messages.json"
	sessionIDSuffix = ".session.id"
)

// FileStore keeps each entry in its own file under <dataDir>/state.
type FileStore struct {
	stateDir string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	stateDir := filepath.Join(dataDir, "state")

	// 0700: conversation history is private
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &FileStore{stateDir: stateDir}, nil
}

func (s *FileStore) entryPath(namespace, suffix string) (string, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return "", err
	}
	return filepath.Join(s.stateDir, namespace+suffix), nil
}

func (s *FileStore) LoadMessages(namespace string) ([]Message, error) {
	path, err := s.entryPath(namespace, messagesSuffix)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}

	return decodeMessages(data)
}

func (s *FileStore) SaveMessages(namespace string, messages []Message) error {
	path, err := s.entryPath(namespace, messagesSuffix)
	if err != nil {
		return err
	}

	data, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	return writeFileAtomic(path, data)
}

func (s *FileStore) LoadSessionID(namespace string) (string, error) {
	path, err := s.entryPath(namespace, sessionIDSuffix)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session id file: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *FileStore) SaveSessionID(namespace, sessionID string) error {
	path, err := s.entryPath(namespace, sessionIDSuffix)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(sessionID))
}

func (s *FileStore) Erase(namespace string) error {
	for _, suffix := range []string{messagesSuffix, sessionIDSuffix} {
		path, err := s.entryPath(namespace, suffix)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Namespaces lists every namespace with at least one entry, sorted.
func (s *FileStore) Namespaces() ([]string, error) {
	entries, err := os.ReadDir(s.stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, suffix := range []string{messagesSuffix, sessionIDSuffix} {
			if ns, ok := strings.CutSuffix(name, suffix); ok && ValidateNamespace(ns) == nil {
				seen[ns] = true
			}
		}
	}

	namespaces := make([]string, 0, len(seen))
	for ns := range seen {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

func (s *FileStore) Close() error {
	return nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory, so a crash mid-write never leaves a truncated entry.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
