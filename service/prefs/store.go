// Package prefs keeps each identity's display settings and the translation
// tables the fault keys resolve against.
package prefs

import (
	"log/slog"
	"sync"

	"github.com/danglnh07/titan/db"
)

type Store struct {
	mu      sync.Mutex
	queries *db.Queries
	logger  *slog.Logger
	records map[string]db.Preferences
}

func NewStore(queries *db.Queries, logger *slog.Logger) (*Store, error) {
	records, err := queries.LoadPreferences()
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = map[string]db.Preferences{}
	}
	return &Store{queries: queries, logger: logger, records: records}, nil
}

// Get returns the identity's settings, falling back to the defaults for
// identities that never saved any. The fallback is not persisted.
func (s *Store) Get(identityID string) db.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prefs, ok := s.records[identityID]; ok {
		return prefs
	}
	return db.DefaultPreferences()
}

// Update applies a partial settings change and persists the collection.
type Update struct {
	Theme                *string
	Language             *string
	NotificationsEnabled *bool
	FontSize             *string
}

func (s *Store) Update(identityID string, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, ok := s.records[identityID]
	if !ok {
		prefs = db.DefaultPreferences()
	}
	if update.Theme != nil {
		prefs.Theme = *update.Theme
	}
	if update.Language != nil {
		prefs.Language = *update.Language
	}
	if update.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *update.NotificationsEnabled
	}
	if update.FontSize != nil {
		prefs.FontSize = *update.FontSize
	}
	s.records[identityID] = prefs

	if err := s.queries.SavePreferences(s.records); err != nil {
		s.logger.Error("Failed to persist preferences", "error", err)
		return err
	}
	return nil
}

// Drop removes an identity's record, used when the account is deleted.
func (s *Store) Drop(identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[identityID]; !ok {
		return nil
	}
	delete(s.records, identityID)
	return s.queries.SavePreferences(s.records)
}
