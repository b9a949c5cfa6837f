package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Export is the document written by ExportToJSON.
type Export struct {
	Instance   string    `json:"instance"`
	SessionID  string    `json:"session_id,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
	Messages   []Message `json:"messages"`
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-", " ", "-",
		"\n", "-", "\r", "-",
	)
	name = replacer.Replace(name)

	name = strings.Trim(name, "-.")

	if len(name) > 50 {
		name = name[:50]
	}

	if name == "" {
		name = "conversation"
	}

	return name
}

// GenerateExportPath generates a default export path in ~/Downloads
func GenerateExportPath(namespace string) string {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = os.Getenv("USERPROFILE") // Windows fallback
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("chatline-%s-%s.json", SanitizeFilename(namespace), timestamp)

	return filepath.Join(homeDir, "Downloads", filename)
}

// ExportToJSON writes export to exportPath, creating parent directories.
func ExportToJSON(exportPath string, export *Export) error {
	if export.Messages == nil {
		export.Messages = []Message{}
	}
	if export.ExportedAt.IsZero() {
		export.ExportedAt = time.Now()
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600: exports contain the conversation
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
