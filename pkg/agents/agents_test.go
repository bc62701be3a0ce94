package agents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltinDefinitions(t *testing.T) {
	r, err := Load(WithHomeDir("/home/u"))
	require.NoError(t, err)
	assert.NotEmpty(t, r.All())

	claude, err := r.Get("claude-code")
	require.NoError(t, err)
	assert.Equal(t, "Claude Code", claude.DisplayName())
	assert.Equal(t, filepath.Join(".claude", "skills"), claude.LocalSkillsDir())
	assert.Equal(t, filepath.Join("/home/u", ".claude", "skills"), claude.SharedSkillsDir())
}

func TestLoadSharedScopeOptional(t *testing.T) {
	r, err := Load(WithHomeDir("/home/u"))
	require.NoError(t, err)

	copilot, err := r.Get("github-copilot")
	require.NoError(t, err)
	assert.Empty(t, copilot.SharedSkillsDir())
	assert.NotEmpty(t, copilot.LocalSkillsDir())
}

func TestLoadUnknownAgent(t *testing.T) {
	r, err := Load(WithHomeDir("/home/u"))
	require.NoError(t, err)

	_, err = r.Get("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestLoadCustomDefinitions(t *testing.T) {
	defs := []byte(`
agents:
  - id: test-agent
    displayName: Test Agent
    localDir: .test/skills
    sharedDir: ~/.test/skills
    detect:
      - ~/.test
`)
	r, err := Load(WithHomeDir("/home/u"), WithDefinitions(defs))
	require.NoError(t, err)
	assert.Equal(t, []string{"test-agent"}, r.IDs())
}

func TestLoadRejectsInvalidDefinition(t *testing.T) {
	defs := []byte(`
agents:
  - id: broken
    displayName: Broken
`)
	_, err := Load(WithHomeDir("/home/u"), WithDefinitions(defs))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localDir")
}

func TestDetectPresent(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".present"), 0o755))

	defs := []byte(`
agents:
  - id: here
    displayName: Here
    localDir: .here/skills
    detect:
      - ~/.present
  - id: gone
    displayName: Gone
    localDir: .gone/skills
    detect:
      - ~/.absent
  - id: also-here
    displayName: Also Here
    localDir: .also/skills
    detect:
      - ~/.missing
      - ~/.present
`)
	r, err := Load(WithHomeDir(home), WithDefinitions(defs))
	require.NoError(t, err)

	detected := r.DetectPresent(context.Background())
	ids := make([]string, 0, len(detected))
	for _, a := range detected {
		ids = append(ids, a.ID())
	}
	assert.Equal(t, []string{"here", "also-here"}, ids)
}
