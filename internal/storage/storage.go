package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vasylcode/matchwatch/internal/model"
)

// DefaultWebhookURL is the automation webhook used until the user sets one
const DefaultWebhookURL = "https://thihx.app.n8n.cloud"

// Prefs are the settings kept on this machine between runs
type Prefs struct {
	Authenticated bool       `json:"authenticated"`
	WebhookURL    string     `json:"webhook_url"`
	DefaultMode   model.Mode `json:"default_mode"`
}

// Storage handles the persistence of local preferences
type Storage struct {
	dataDir   string
	prefsFile string
	prefs     Prefs
}

// New creates a Storage rooted at ~/.matchwatch
func New() (*Storage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return Open(filepath.Join(homeDir, ".matchwatch"))
}

// Open creates a Storage rooted at dataDir
func Open(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		dataDir:   dataDir,
		prefsFile: filepath.Join(dataDir, "prefs.json"),
		prefs: Prefs{
			WebhookURL:  DefaultWebhookURL,
			DefaultMode: model.ModeB,
		},
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// load loads prefs from disk
func (s *Storage) load() error {
	if _, err := os.Stat(s.prefsFile); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.prefsFile)
	if err != nil {
		return fmt.Errorf("failed to read prefs file: %w", err)
	}

	if err := json.Unmarshal(data, &s.prefs); err != nil {
		return fmt.Errorf("failed to unmarshal prefs: %w", err)
	}

	if s.prefs.WebhookURL == "" {
		s.prefs.WebhookURL = DefaultWebhookURL
	}
	if !s.prefs.DefaultMode.Valid() {
		s.prefs.DefaultMode = model.ModeB
	}
	return nil
}

// save saves prefs to disk
func (s *Storage) save() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(s.prefsFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write prefs file: %w", err)
	}

	return nil
}

// Dir returns the data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// Prefs returns the current preferences
func (s *Storage) Prefs() Prefs {
	return s.prefs
}

// Authenticated reports whether the user has logged in on this machine
func (s *Storage) Authenticated() bool {
	return s.prefs.Authenticated
}

// SetAuthenticated records a login or logout
func (s *Storage) SetAuthenticated(v bool) error {
	s.prefs.Authenticated = v
	return s.save()
}

// SetDefaultMode sets the mode given to new watchlist items
func (s *Storage) SetDefaultMode(raw string) error {
	mode, err := model.ParseMode(raw)
	if err != nil {
		return err
	}
	s.prefs.DefaultMode = mode
	return s.save()
}

// SetWebhookURL sets the automation webhook
func (s *Storage) SetWebhookURL(raw string) error {
	u := strings.TrimSpace(raw)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("webhook url '%s' must start with http:// or https://", raw)
	}
	s.prefs.WebhookURL = u
	return s.save()
}
