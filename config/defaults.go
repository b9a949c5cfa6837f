package config

import "time"

// DefaultResetTimeout bounds the remote reset call when no positive
// timeout is configured.
const DefaultResetTimeout = 10 * time.Second

const (
	DefaultServerURL  = "http://localhost:8000"
	DefaultInstance   = "default"
	DefaultTimeFormat = "3:04:05 PM"
	DefaultErrorText  = "Sorry, I encountered an error. Please try again."
)

func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerConfig{
			URL:                   DefaultServerURL,
			RequestTimeoutSeconds: 60,
			ResetTimeoutSeconds:   10,
		},
		Storage: StorageConfig{
			DataDirectory: GetDefaultDataDir(),
			Backend:       BackendFile,
		},
		Chat: ChatConfig{
			Instance:   DefaultInstance,
			TimeFormat: DefaultTimeFormat,
			ErrorText:  DefaultErrorText,
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# chatline configuration
# Location: ~/.config/chatline/settings.toml
# This file uses TOML format: https://toml.io

[server]
# Base URL of the chat service (POST /chat, POST /reset-chat/{id})
url = "http://localhost:8000"

# Upper bound for one exchange, in seconds (0 = wait forever)
request_timeout_seconds = 60

# Upper bound for the best-effort reset call, in seconds (must be > 0)
reset_timeout_seconds = 10

[storage]
# Directory where conversation state and the debug log live
data_directory = "~/.local/share/chatline"

# "file" (one JSON file per entry) or "sqlite" (single state.db)
backend = "file"

[chat]
# Instance namespace; distinct instances keep separate histories
instance = "default"

# Go time layout used to render message timestamps
time_format = "3:04:05 PM"

# Reply shown when an exchange fails
error_text = "Sorry, I encountered an error. Please try again."

# Drop replies that arrive after the conversation was reset
discard_stale_replies = false
`
}
