// Package lockfile persists the record of installed skills: where each one
// came from and the content fingerprint it had at install time. The record
// is a single versioned JSON document under the shared-scope root. A
// document with an unexpected schema version is treated as absent and reset
// wholesale; there is no field-level migration.
package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/paths"
)

// SchemaVersion is the expected version of the lock document. Documents
// carrying any other version are discarded on read.
const SchemaVersion = 2

const fileName = "skillbox-lock.json"

// SkillEntry is the provenance record for one installed skill, keyed in the
// document by sanitized skill name.
type SkillEntry struct {
	Source          string    `json:"source"`
	SourceType      string    `json:"sourceType"`
	SourceURL       string    `json:"sourceUrl"`
	SkillPath       string    `json:"skillPath,omitempty"`
	SkillFolderHash string    `json:"skillFolderHash"`
	InstalledAt     time.Time `json:"installedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Document is the full persisted structure.
type Document struct {
	Version            int                    `json:"version"`
	Skills             map[string]*SkillEntry `json:"skills"`
	LastSelectedAgents []string               `json:"lastSelectedAgents,omitempty"`
	Dismissed          map[string]bool        `json:"dismissed,omitempty"`
}

func emptyDocument() *Document {
	return &Document{
		Version: SchemaVersion,
		Skills:  make(map[string]*SkillEntry),
	}
}

// Store reads and writes the lock document. Concurrent read-modify-write
// cycles are serialized with an advisory lock file next to the document.
type Store struct {
	path string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPath overrides the lock document location.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store rooted at the default shared-scope location.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get home directory")
		}
		s.path = filepath.Join(home, paths.RootDirName, fileName)
	}

	return s, nil
}

// Path returns the lock document location.
func (s *Store) Path() string { return s.path }

// Read loads the lock document. Any form of corruption — unreadable file,
// invalid JSON, missing skills map, schema version mismatch — degrades to a
// fresh empty document rather than an error, so callers always see a usable
// document and prior installs are simply forgotten.
func (s *Store) Read() *Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return emptyDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return emptyDocument()
	}
	if doc.Skills == nil || doc.Version != SchemaVersion {
		return emptyDocument()
	}
	return &doc
}

// Write replaces the whole lock document on disk with stable formatting.
func (s *Store) Write(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create lock file directory")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize lock file")
	}

	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(err, "failed to write lock file")
	}
	return nil
}

// Update runs a read-modify-write cycle under the advisory lock.
func (s *Store) Update(fn func(*Document) error) error {
	return withLock(s.path, func() error {
		doc := s.Read()
		if err := fn(doc); err != nil {
			return err
		}
		return s.Write(doc)
	})
}

// UpsertSkill records or refreshes the provenance entry for a skill. The
// original install timestamp survives reinstalls and updates; only
// updatedAt is refreshed.
func (s *Store) UpsertSkill(name string, entry SkillEntry) error {
	key := paths.Sanitize(name)
	return s.Update(func(doc *Document) error {
		now := s.now().UTC()
		if existing, ok := doc.Skills[key]; ok {
			entry.InstalledAt = existing.InstalledAt
		} else {
			entry.InstalledAt = now
		}
		entry.UpdatedAt = now
		doc.Skills[key] = &entry
		return nil
	})
}

// RemoveSkill deletes the entry for a skill. Removing an unknown skill is
// not an error.
func (s *Store) RemoveSkill(name string) error {
	key := paths.Sanitize(name)
	return s.Update(func(doc *Document) error {
		delete(doc.Skills, key)
		return nil
	})
}

// GetSkill looks up the entry for a skill by its declared or sanitized
// name. The second return reports whether an entry exists.
func (s *Store) GetSkill(name string) (*SkillEntry, bool) {
	doc := s.Read()
	entry, ok := doc.Skills[paths.Sanitize(name)]
	return entry, ok
}

// LastSelectedAgents returns the agent IDs chosen during the previous
// install, used only to prefill future selections.
func (s *Store) LastSelectedAgents() []string {
	return s.Read().LastSelectedAgents
}

// SaveSelectedAgents remembers the agent IDs chosen for an install.
func (s *Store) SaveSelectedAgents(ids []string) error {
	return s.Update(func(doc *Document) error {
		doc.LastSelectedAgents = ids
		return nil
	})
}

// IsDismissed reports whether a one-time prompt has been dismissed.
func (s *Store) IsDismissed(key string) bool {
	return s.Read().Dismissed[key]
}

// Dismiss records that a one-time prompt should not be shown again.
func (s *Store) Dismiss(key string) error {
	return s.Update(func(doc *Document) error {
		if doc.Dismissed == nil {
			doc.Dismissed = make(map[string]bool)
		}
		doc.Dismissed[key] = true
		return nil
	})
}
