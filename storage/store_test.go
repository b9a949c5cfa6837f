package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func sampleMessages() []Message {
	at := time.Date(2025, 3, 4, 15, 4, 5, 0, time.UTC)
	return []Message{
		{ID: "01", Text: "Hello", Sender: SenderUser, Timestamp: "3:04:05 PM", At: at},
		{ID: "02", Text: "Hi!", Sender: SenderAssistant, Timestamp: "3:04:06 PM", At: at.Add(time.Second)},
		{ID: "03", Text: "Where are you located?", Sender: SenderUser, Timestamp: "3:05:00 PM", At: at.Add(time.Minute)},
		{ID: "04", Text: "Sorry, I encountered an error. Please try again.", Sender: SenderAssistant, Timestamp: "3:05:01 PM", IsError: true, At: at.Add(time.Minute + time.Second)},
	}
}

type storeFactory struct {
	name string
	open func(t *testing.T, dataDir string) StateStore
	// corrupt writes an undecodable messages entry for namespace.
	corrupt func(t *testing.T, s StateStore, dataDir, namespace string, raw string)
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{
			name: "file",
			open: func(t *testing.T, dataDir string) StateStore {
				s, err := NewFileStore(dataDir)
				if err != nil {
					t.Fatalf("NewFileStore() error = %v", err)
				}
				return s
			},
			corrupt: func(t *testing.T, s StateStore, dataDir, namespace, raw string) {
				path := filepath.Join(dataDir, "state", namespace+messagesSuffix)
				if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
					t.Fatalf("write corrupt file: %v", err)
				}
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T, dataDir string) StateStore {
				s, err := NewSQLiteStore(dataDir)
				if err != nil {
					t.Fatalf("NewSQLiteStore() error = %v", err)
				}
				return s
			},
			corrupt: func(t *testing.T, s StateStore, dataDir, namespace, raw string) {
				if err := s.(*SQLiteStore).put(namespace, keyMessages, raw); err != nil {
					t.Fatalf("write corrupt row: %v", err)
				}
			},
		},
	}
}

// TestStateStoreContract runs the same expectations against every backend.
func TestStateStoreContract(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			t.Run("RoundTrip", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				defer s.Close()

				want := sampleMessages()
				if err := s.SaveMessages("chat1", want); err != nil {
					t.Fatalf("SaveMessages() error = %v", err)
				}
				if err := s.SaveSessionID("chat1", "abc"); err != nil {
					t.Fatalf("SaveSessionID() error = %v", err)
				}

				got, err := s.LoadMessages("chat1")
				if err != nil {
					t.Fatalf("LoadMessages() error = %v", err)
				}
				if len(got) != len(want) {
					t.Fatalf("got %d messages, want %d", len(got), len(want))
				}
				for i := range want {
					if !got[i].At.Equal(want[i].At) {
						t.Errorf("message %d At = %v, want %v", i, got[i].At, want[i].At)
					}
					got[i].At, want[i].At = time.Time{}, time.Time{}
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("LoadMessages() = %+v, want %+v", got, want)
				}

				id, err := s.LoadSessionID("chat1")
				if err != nil || id != "abc" {
					t.Errorf("LoadSessionID() = %q, %v; want abc", id, err)
				}
			})

			t.Run("OverwriteInFull", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				defer s.Close()

				msgs := sampleMessages()
				if err := s.SaveMessages("chat1", msgs); err != nil {
					t.Fatal(err)
				}
				if err := s.SaveMessages("chat1", msgs[:1]); err != nil {
					t.Fatal(err)
				}

				got, err := s.LoadMessages("chat1")
				if err != nil {
					t.Fatal(err)
				}
				if len(got) != 1 || got[0].ID != "01" {
					t.Errorf("LoadMessages() = %+v, want only the first message", got)
				}
			})

			t.Run("AbsentState", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				defer s.Close()

				if _, err := s.LoadMessages("chat1"); !errors.Is(err, ErrNotFound) {
					t.Errorf("LoadMessages() error = %v, want ErrNotFound", err)
				}
				if _, err := s.LoadSessionID("chat1"); !errors.Is(err, ErrNotFound) {
					t.Errorf("LoadSessionID() error = %v, want ErrNotFound", err)
				}
			})

			t.Run("Erase", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				defer s.Close()

				if err := s.SaveMessages("chat1", sampleMessages()); err != nil {
					t.Fatal(err)
				}
				if err := s.SaveSessionID("chat1", "abc"); err != nil {
					t.Fatal(err)
				}

				if err := s.Erase("chat1"); err != nil {
					t.Fatalf("Erase() error = %v", err)
				}
				if _, err := s.LoadMessages("chat1"); !errors.Is(err, ErrNotFound) {
					t.Errorf("after Erase LoadMessages() error = %v, want ErrNotFound", err)
				}
				if _, err := s.LoadSessionID("chat1"); !errors.Is(err, ErrNotFound) {
					t.Errorf("after Erase LoadSessionID() error = %v, want ErrNotFound", err)
				}

				// Erasing again is fine.
				if err := s.Erase("chat1"); err != nil {
					t.Errorf("second Erase() error = %v", err)
				}
			})

			t.Run("NamespacesAreIsolated", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				defer s.Close()

				msgs := sampleMessages()
				if err := s.SaveMessages("chat1", msgs[:2]); err != nil {
					t.Fatal(err)
				}
				if err := s.SaveMessages("chat5", msgs[2:]); err != nil {
					t.Fatal(err)
				}
				if err := s.SaveSessionID("chat5", "xyz"); err != nil {
					t.Fatal(err)
				}

				if err := s.Erase("chat1"); err != nil {
					t.Fatal(err)
				}

				got, err := s.LoadMessages("chat5")
				if err != nil {
					t.Fatalf("chat5 lost after erasing chat1: %v", err)
				}
				if len(got) != 2 || got[0].ID != "03" {
					t.Errorf("chat5 messages = %+v", got)
				}

				namespaces, err := s.Namespaces()
				if err != nil {
					t.Fatal(err)
				}
				if !reflect.DeepEqual(namespaces, []string{"chat5"}) {
					t.Errorf("Namespaces() = %v, want [chat5]", namespaces)
				}
			})

			t.Run("CorruptMessages", func(t *testing.T) {
				cases := map[string]string{
					"not json":        "{{{",
					"null":            "null",
					"object":          `{"id":"1"}`,
					"unknown sender":  `[{"id":"1","text":"hi","sender":"ai","timestamp":"now"}]`,
					"empty text":      `[{"id":"1","text":"","sender":"user","timestamp":"now"}]`,
					"missing id":      `[{"text":"hi","sender":"user","timestamp":"now"}]`,
					"numeric id type": `[{"id":1712345678901,"text":"hi","sender":"user","timestamp":"now"}]`,
				}

				for name, raw := range cases {
					t.Run(name, func(t *testing.T) {
						dataDir := t.TempDir()
						s := f.open(t, dataDir)
						defer s.Close()

						f.corrupt(t, s, dataDir, "chat1", raw)

						if _, err := s.LoadMessages("chat1"); !errors.Is(err, ErrCorrupt) {
							t.Errorf("LoadMessages() error = %v, want ErrCorrupt", err)
						}
					})
				}
			})

			t.Run("InvalidNamespace", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				defer s.Close()

				for _, ns := range []string{"", "../escape", "a/b", ".hidden"} {
					if err := s.SaveMessages(ns, sampleMessages()); err == nil {
						t.Errorf("SaveMessages(%q) expected error", ns)
					}
				}
			})

			t.Run("SurvivesReopen", func(t *testing.T) {
				dataDir := t.TempDir()
				s := f.open(t, dataDir)
				if err := s.SaveMessages("chat1", sampleMessages()); err != nil {
					t.Fatal(err)
				}
				if err := s.Close(); err != nil {
					t.Fatal(err)
				}

				reopened := f.open(t, dataDir)
				defer reopened.Close()

				got, err := reopened.LoadMessages("chat1")
				if err != nil {
					t.Fatalf("LoadMessages() after reopen error = %v", err)
				}
				if len(got) != len(sampleMessages()) {
					t.Errorf("got %d messages after reopen", len(got))
				}
			})
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
		wantTyp string
	}{
		{BackendFile, false, "*storage.FileStore"},
		{"", false, "*storage.FileStore"},
		{BackendSQLite, false, "*storage.SQLiteStore"},
		{"redis", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, t.TempDir())
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			if got := reflect.TypeOf(s).String(); got != tt.wantTyp {
				t.Errorf("Open(%q) returned %s, want %s", tt.backend, got, tt.wantTyp)
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	valid := []string{"default", "chat1", "chat5", "support.bot", "a_b-c"}
	invalid := []string{"", " ", "-lead", ".hidden", "a/b", "a\\b", "with space", "ümlaut",
		"x123456789012345678901234567890123456789012345678901234567890abcd"}

	for _, ns := range valid {
		if err := ValidateNamespace(ns); err != nil {
			t.Errorf("ValidateNamespace(%q) = %v, want nil", ns, err)
		}
	}
	for _, ns := range invalid {
		if err := ValidateNamespace(ns); err == nil {
			t.Errorf("ValidateNamespace(%q) = nil, want error", ns)
		}
	}
}
