package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// ErrNoSkills is returned by Discover when a source tree contains no usable
// skill directories.
var ErrNoSkills = errors.New("no skills found")

// Conventional locations probed for skill directories when the source root
// itself is not a skill.
var conventionalSubdirs = []string{
	"skills",
	filepath.Join(".claude", "skills"),
	filepath.Join(".agents", "skills"),
}

// Option configures Discover.
type Option func(*discoverConfig)

type discoverConfig struct {
	subpath         string
	includeInternal bool
}

// WithSubpath restricts discovery to a subdirectory of the source root.
func WithSubpath(subpath string) Option {
	return func(c *discoverConfig) { c.subpath = subpath }
}

// WithInternal includes skills flagged internal in their metadata, which
// are excluded by default.
func WithInternal(include bool) Option {
	return func(c *discoverConfig) { c.includeInternal = include }
}

// Discover finds skills under root. A SKILL.md directly at the root makes
// the root itself a single skill; otherwise the immediate children of the
// root and of the conventional skill subdirectories are probed. Directories
// whose descriptor fails to parse are skipped.
func Discover(root string, opts ...Option) ([]*Skill, error) {
	cfg := &discoverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.subpath != "" {
		sub := filepath.Join(root, cfg.subpath)
		if !withinRoot(root, sub) {
			return nil, errors.Errorf("subpath %q escapes the source root", cfg.subpath)
		}
		root = sub
	}

	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "source directory %s not accessible", root)
	}

	var found []*Skill
	seen := make(map[string]bool)

	if skill, err := Load(root); err == nil {
		found = append(found, skill)
		seen[root] = true
	}

	scanDirs := append([]string{root}, conventionalSubdirs...)
	for i, sub := range scanDirs {
		dir := sub
		if i > 0 {
			dir = filepath.Join(root, sub)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			skillDir := filepath.Join(dir, entry.Name())
			if seen[skillDir] {
				continue
			}
			skill, err := Load(skillDir)
			if err != nil {
				continue
			}
			seen[skillDir] = true
			found = append(found, skill)
		}
	}

	if !cfg.includeInternal {
		filtered := found[:0]
		for _, s := range found {
			if !s.Internal {
				filtered = append(filtered, s)
			}
		}
		found = filtered
	}

	if len(found) == 0 {
		return nil, errors.Wrapf(ErrNoSkills, "in %s", root)
	}
	return found, nil
}

// Load reads and parses the descriptor of a single skill directory.
func Load(dir string) (*Skill, error) {
	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill descriptor")
	}

	md, err := ParseDescriptor(content)
	if err != nil {
		return nil, err
	}

	return &Skill{
		Name:          md.Name,
		Description:   md.Description,
		Directory:     dir,
		DescriptorRaw: string(content),
		Internal:      md.Internal,
	}, nil
}

// ParseDescriptor parses SKILL.md content and validates the two mandatory
// frontmatter fields.
func ParseDescriptor(content []byte) (*Metadata, error) {
	parsed := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := parsed.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse descriptor markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("descriptor has no frontmatter")
	}

	var md Metadata
	if err := mapstructure.Decode(metaData, &md); err != nil {
		return nil, errors.Wrap(err, "failed to decode descriptor frontmatter")
	}

	if md.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if md.Description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	return &md, nil
}

func withinRoot(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
