// Package paths derives and validates every filesystem location the
// installer touches. Skill names come from untrusted descriptor files, so
// each derived path is checked against its base directory before any
// filesystem mutation happens.
package paths

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Scope selects where a skill is rooted: the user's home directory or the
// current working directory.
type Scope string

// Supported installation scopes
const (
	ScopeShared Scope = "shared"
	ScopeLocal  Scope = "local"
)

const (
	// RootDirName is the marker directory that anchors everything this tool
	// writes, both in the home directory and in project directories.
	RootDirName = ".agents"

	// SkillsDirName is the subdirectory under RootDirName holding canonical
	// skill copies.
	SkillsDirName = "skills"

	// FallbackName is substituted when sanitization produces an empty name.
	FallbackName = "skill"

	maxNameLength = 255
)

// Sentinel errors for scope and path-safety violations. Callers match them
// with errors.Is.
var (
	ErrUnsupportedScope = errors.New("target does not support shared scope")
	ErrPathTraversal    = errors.New("derived path escapes its base directory")
)

// Target describes the directory layout of a consumer program. Implemented
// by agents.Agent.
type Target interface {
	// SharedSkillsDir returns the absolute shared-scope skills directory,
	// or "" when the target does not support shared scope.
	SharedSkillsDir() string
	// LocalSkillsDir returns the skills directory relative to a working
	// directory.
	LocalSkillsDir() string
}

var unsafeRuns = regexp.MustCompile(`[^a-z0-9._]+`)

// Sanitize normalizes a raw skill name into a filesystem-safe identifier:
// lower-cased, runs of disallowed characters collapsed to a single hyphen,
// leading/trailing hyphens and dots stripped, truncated to 255 characters.
// Returns FallbackName when nothing survives. Idempotent.
func Sanitize(raw string) string {
	name := strings.ToLower(raw)
	name = unsafeRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
		name = strings.Trim(name, "-.")
	}
	if name == "" {
		return FallbackName
	}
	return name
}

// CanonicalDir resolves the canonical skills root for a scope. Shared scope
// roots at the user's home directory; local scope roots at baseDir, falling
// back to the process working directory when baseDir is empty.
func CanonicalDir(scope Scope, baseDir string) (string, error) {
	root, err := scopeRoot(scope, baseDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, RootDirName, SkillsDirName), nil
}

// CanonicalSkillDir resolves and validates the canonical directory for a
// single skill. The returned path is guaranteed to sit under the canonical
// skills root.
func CanonicalSkillDir(scope Scope, baseDir, rawName string) (string, error) {
	base, err := CanonicalDir(scope, baseDir)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, Sanitize(rawName))
	if !IsPathSafe(base, dir) {
		return "", errors.Wrapf(ErrPathTraversal, "skill %q", rawName)
	}
	return dir, nil
}

// TargetDir resolves the skills directory of a target for a scope. Shared
// scope requires the target to declare a shared directory; local scope joins
// the working directory with the target's relative skills directory.
func TargetDir(t Target, scope Scope, baseDir string) (string, error) {
	switch scope {
	case ScopeShared:
		dir := t.SharedSkillsDir()
		if dir == "" {
			return "", ErrUnsupportedScope
		}
		return dir, nil
	default:
		root, err := scopeRoot(ScopeLocal, baseDir)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, t.LocalSkillsDir()), nil
	}
}

// TargetSkillDir resolves and validates the install directory for a single
// skill inside a target's skills directory.
func TargetSkillDir(t Target, scope Scope, baseDir, rawName string) (string, error) {
	base, err := TargetDir(t, scope, baseDir)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, Sanitize(rawName))
	if !IsPathSafe(base, dir) {
		return "", errors.Wrapf(ErrPathTraversal, "skill %q", rawName)
	}
	return dir, nil
}

// IsPathSafe reports whether candidate, once normalized and made absolute,
// equals base or sits strictly below it. A sibling sharing only a name
// prefix (base "/a/b", candidate "/a/bc") is not safe.
func IsPathSafe(base, candidate string) bool {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return false
	}
	absCandidate, err := filepath.Abs(filepath.Clean(candidate))
	if err != nil {
		return false
	}
	if absCandidate == absBase {
		return true
	}
	return strings.HasPrefix(absCandidate, absBase+string(filepath.Separator))
}

func scopeRoot(scope Scope, baseDir string) (string, error) {
	if scope == ScopeShared {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		return home, nil
	}
	if baseDir != "" {
		return baseDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}
	return cwd, nil
}
