package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(WithPath(filepath.Join(t.TempDir(), "skillbox-lock.json")))
	require.NoError(t, err)
	return store
}

func TestReadMissingFile(t *testing.T) {
	store := newTestStore(t)

	doc := store.Read()
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Empty(t, doc.Skills)
	assert.NotNil(t, doc.Skills)
}

func TestReadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	doc := store.Read()
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Empty(t, doc.Skills)
}

func TestReadStaleVersionResets(t *testing.T) {
	store := newTestStore(t)

	stale := map[string]any{
		"version": SchemaVersion - 1,
		"skills": map[string]any{
			"old-skill": map[string]any{"source": "user/repo"},
		},
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), data, 0o644))

	doc := store.Read()
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Empty(t, doc.Skills, "stale document must reset to empty, not carry entries over")
}

func TestReadNonNumericVersionResets(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"version":"two","skills":{}}`), 0o644))

	doc := store.Read()
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Empty(t, doc.Skills)
}

func TestReadMissingSkillsMapResets(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"version":2}`), 0o644))

	doc := store.Read()
	assert.NotNil(t, doc.Skills)
}

func TestWriteRoundTrip(t *testing.T) {
	store := newTestStore(t)

	doc := store.Read()
	doc.Skills["my-skill"] = &SkillEntry{
		Source:          "user/repo",
		SourceType:      "github",
		SourceURL:       "https://github.com/user/repo",
		SkillFolderHash: "abc123",
	}
	require.NoError(t, store.Write(doc))

	reread := store.Read()
	require.Contains(t, reread.Skills, "my-skill")
	assert.Equal(t, "user/repo", reread.Skills["my-skill"].Source)
}

func TestUpsertSkillPreservesInstalledAt(t *testing.T) {
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store, err := NewStore(
		WithPath(filepath.Join(t.TempDir(), "skillbox-lock.json")),
		WithClock(func() time.Time { return current }),
	)
	require.NoError(t, err)

	require.NoError(t, store.UpsertSkill("My Skill", SkillEntry{Source: "user/repo", SkillFolderHash: "h1"}))

	entry, ok := store.GetSkill("My Skill")
	require.True(t, ok)
	firstInstall := entry.InstalledAt
	assert.Equal(t, current, firstInstall)

	current = current.Add(48 * time.Hour)
	require.NoError(t, store.UpsertSkill("My Skill", SkillEntry{Source: "user/repo", SkillFolderHash: "h2"}))

	entry, ok = store.GetSkill("my-skill") // sanitized key lookup
	require.True(t, ok)
	assert.Equal(t, firstInstall, entry.InstalledAt, "reinstall must not reset install date")
	assert.Equal(t, current, entry.UpdatedAt)
	assert.Equal(t, "h2", entry.SkillFolderHash)
}

func TestRemoveSkill(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertSkill("gone-soon", SkillEntry{Source: "user/repo"}))

	require.NoError(t, store.RemoveSkill("gone-soon"))
	_, ok := store.GetSkill("gone-soon")
	assert.False(t, ok)

	// Removing an unknown skill is not an error.
	require.NoError(t, store.RemoveSkill("never-existed"))
}

func TestSelectedAgents(t *testing.T) {
	store := newTestStore(t)
	assert.Empty(t, store.LastSelectedAgents())

	require.NoError(t, store.SaveSelectedAgents([]string{"claude-code", "cursor"}))
	assert.Equal(t, []string{"claude-code", "cursor"}, store.LastSelectedAgents())
}

func TestDismissed(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.IsDismissed("update-hint"))

	require.NoError(t, store.Dismiss("update-hint"))
	assert.True(t, store.IsDismissed("update-hint"))
}

func TestUpdateSerializesConcurrentWriters(t *testing.T) {
	store := newTestStore(t)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Update(func(doc *Document) error {
				doc.Skills["counter"] = &SkillEntry{SkillFolderHash: "x"}
				if doc.Dismissed == nil {
					doc.Dismissed = make(map[string]bool)
				}
				doc.Dismissed[string(rune('a'+n))] = true
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	doc := store.Read()
	assert.Len(t, doc.Dismissed, writers, "every writer's change must survive")
}
