package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, description string, extra ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: " + name + "\ndescription: " + description + "\n"
	for _, line := range extra {
		content += line + "\n"
	}
	content += "---\n\n# " + name + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestParseDescriptor(t *testing.T) {
	content := []byte("---\nname: code-review\ndescription: Reviews code\n---\n\n# Instructions\n")

	md, err := ParseDescriptor(content)
	require.NoError(t, err)
	assert.Equal(t, "code-review", md.Name)
	assert.Equal(t, "Reviews code", md.Description)
	assert.False(t, md.Internal)
}

func TestParseDescriptorInternalFlag(t *testing.T) {
	content := []byte("---\nname: helper\ndescription: Internal helper\ninternal: true\n---\n")

	md, err := ParseDescriptor(content)
	require.NoError(t, err)
	assert.True(t, md.Internal)
}

func TestParseDescriptorMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no frontmatter", "# Just markdown\n", "no frontmatter"},
		{"missing name", "---\ndescription: something\n---\n", "name is required"},
		{"missing description", "---\nname: something\n---\n", "description is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptor([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDiscoverRootIsSkill(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "solo-skill", "A single skill at the root")

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "solo-skill", found[0].Name)
	assert.Equal(t, root, found[0].Directory)
	assert.Contains(t, found[0].DescriptorRaw, "name: solo-skill")
}

func TestDiscoverConventionalSubdirs(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "skills", "alpha"), "alpha", "First")
	writeSkill(t, filepath.Join(root, "skills", "beta"), "beta", "Second")
	writeSkill(t, filepath.Join(root, ".claude", "skills", "gamma"), "gamma", "Third")
	// Not a skill: directory without a descriptor.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skills", "docs"), 0o755))

	found, err := Discover(root)
	require.NoError(t, err)

	names := make([]string, 0, len(found))
	for _, s := range found {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, names)
}

func TestDiscoverImmediateChildren(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "my-skill"), "my-skill", "Direct child of root")

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "my-skill", found[0].Name)
}

func TestDiscoverSkipsBrokenDescriptors(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "skills", "good"), "good", "Parses fine")

	broken := filepath.Join(root, "skills", "broken")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, FileName), []byte("---\ndescription: no name\n---\n"), 0o644))

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "good", found[0].Name)
}

func TestDiscoverInternalExcludedByDefault(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "skills", "public"), "public", "Visible")
	writeSkill(t, filepath.Join(root, "skills", "secret"), "secret", "Hidden", "internal: true")

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "public", found[0].Name)

	all, err := Discover(root, WithInternal(true))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDiscoverSubpath(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "bundle", "skills", "inner"), "inner", "Nested under subpath")
	writeSkill(t, filepath.Join(root, "skills", "outer"), "outer", "Outside subpath")

	found, err := Discover(root, WithSubpath("bundle"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "inner", found[0].Name)
}

func TestDiscoverSubpathEscape(t *testing.T) {
	root := t.TempDir()
	_, err := Discover(root, WithSubpath("../elsewhere"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

func TestDiscoverEmpty(t *testing.T) {
	root := t.TempDir()
	_, err := Discover(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSkills))
}
