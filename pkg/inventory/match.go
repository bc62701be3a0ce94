package inventory

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

// A target's on-disk directory name is not guaranteed to equal the
// canonical sanitized name: manual installs, earlier tool versions and
// copy-mode drift all produce variants. Presence is therefore probed with
// an ordered list of strategies, stopping at the first hit.
type matchStrategy func(targetBase, canonicalEntry string, skill *skills.Skill) bool

var strategies = []matchStrategy{
	matchByEntryName,
	matchBySanitizedName,
	matchBySlugifiedName,
	matchByDeclaredName,
}

func matchInTarget(targetBase, canonicalEntry string, skill *skills.Skill) bool {
	for _, strategy := range strategies {
		if strategy(targetBase, canonicalEntry, skill) {
			return true
		}
	}
	return false
}

// matchByEntryName probes the exact directory name found at the canonical
// location.
func matchByEntryName(targetBase, canonicalEntry string, _ *skills.Skill) bool {
	return dirExists(filepath.Join(targetBase, canonicalEntry))
}

// matchBySanitizedName probes the sanitized form of the declared name.
func matchBySanitizedName(targetBase, _ string, skill *skills.Skill) bool {
	return dirExists(filepath.Join(targetBase, paths.Sanitize(skill.Name)))
}

// matchBySlugifiedName probes a loosely slugified form of the declared
// name: lower-cased, whitespace runs replaced with a hyphen, path
// separators and NUL stripped.
func matchBySlugifiedName(targetBase, _ string, skill *skills.Skill) bool {
	return dirExists(filepath.Join(targetBase, looseSlug(skill.Name)))
}

// matchByDeclaredName is the expensive fallback: scan every directory under
// the target base and compare each descriptor's declared name for an exact
// string match.
func matchByDeclaredName(targetBase, _ string, skill *skills.Skill) bool {
	entries, err := os.ReadDir(targetBase)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		candidate, err := skills.Load(filepath.Join(targetBase, entry.Name()))
		if err != nil {
			continue
		}
		if candidate.Name == skill.Name {
			return true
		}
	}
	return false
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

func looseSlug(name string) string {
	slug := strings.ToLower(name)
	slug = whitespaceRuns.ReplaceAllString(slug, "-")
	slug = strings.NewReplacer("/", "", "\\", "", "\x00", "").Replace(slug)
	return slug
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
