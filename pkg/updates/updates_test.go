package updates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/repo"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

const descriptorA = "---\nname: fingerprinted\ndescription: Original content\n---\n\n# Body\n"
const descriptorB = "---\nname: fingerprinted\ndescription: Original content!\n---\n\n# Body\n"

func newDetector(t *testing.T) *Detector {
	t.Helper()
	return New(repo.NewFetcher(repo.WithStagingRoot(t.TempDir())))
}

func installCanonical(t *testing.T, home, entry, descriptor string) {
	t.Helper()
	dir := filepath.Join(home, paths.RootDirName, paths.SkillsDirName, entry)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.FileName), []byte(descriptor), 0o644))
}

func sourceDir(t *testing.T, descriptor string) string {
	t.Helper()
	src := t.TempDir()
	dir := filepath.Join(src, "skills", "fingerprinted")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.FileName), []byte(descriptor), 0o644))
	return src
}

func TestFingerprintDeterministic(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte(descriptorA)), Fingerprint([]byte(descriptorA)))
	assert.NotEqual(t, Fingerprint([]byte(descriptorA)), Fingerprint([]byte(descriptorB)),
		"a single changed character must change the fingerprint")
	assert.Len(t, Fingerprint([]byte(descriptorA)), 64)
}

func TestLocalFingerprint(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	installCanonical(t, home, "fingerprinted", descriptorA)

	hash, err := newDetector(t).LocalFingerprint("Fingerprinted", paths.ScopeShared)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint([]byte(descriptorA)), hash)
}

func TestLocalFingerprintAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	hash, err := newDetector(t).LocalFingerprint("never-installed", paths.ScopeShared)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestRemoteFingerprint(t *testing.T) {
	d := newDetector(t)
	src := sourceDir(t, descriptorA)

	hash := d.RemoteFingerprint(context.Background(), src, "")
	assert.Equal(t, Fingerprint([]byte(descriptorA)), hash)

	// Local directory sources survive the post-check cleanup.
	assert.DirExists(t, src)
}

func TestRemoteFingerprintAbsent(t *testing.T) {
	d := newDetector(t)

	hash := d.RemoteFingerprint(context.Background(), t.TempDir(), "")
	assert.Empty(t, hash, "source with no skills yields an absent fingerprint")
}

func TestCheckForUpdatesNoChange(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	installCanonical(t, home, "fingerprinted", descriptorA)

	result, err := newDetector(t).CheckForUpdates(context.Background(), "fingerprinted", sourceDir(t, descriptorA), paths.ScopeShared)
	require.NoError(t, err)
	assert.False(t, result.HasUpdate)
	assert.Equal(t, UpdateNone, result.UpdateType)
	assert.Equal(t, result.LocalHash, result.RemoteHash)
}

func TestCheckForUpdatesContentChanged(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	installCanonical(t, home, "fingerprinted", descriptorA)

	result, err := newDetector(t).CheckForUpdates(context.Background(), "fingerprinted", sourceDir(t, descriptorB), paths.ScopeShared)
	require.NoError(t, err)
	assert.True(t, result.HasUpdate)
	assert.Equal(t, UpdateContent, result.UpdateType)
	assert.NotEqual(t, result.LocalHash, result.RemoteHash)
}

func TestCheckForUpdatesLocalAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	result, err := newDetector(t).CheckForUpdates(context.Background(), "missing", sourceDir(t, descriptorA), paths.ScopeShared)
	require.NoError(t, err)
	assert.False(t, result.HasUpdate, "a missing side is not a difference")
	assert.Equal(t, UpdateNone, result.UpdateType)
	assert.Empty(t, result.LocalHash)
}

func TestCheckForUpdatesRemoteAbsent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	installCanonical(t, home, "fingerprinted", descriptorA)

	result, err := newDetector(t).CheckForUpdates(context.Background(), "fingerprinted", t.TempDir(), paths.ScopeShared)
	require.NoError(t, err)
	assert.False(t, result.HasUpdate)
	assert.Empty(t, result.RemoteHash)
}
