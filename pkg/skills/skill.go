// Package skills discovers installable skills in a source tree. A skill is
// a directory anchored by a SKILL.md file whose YAML frontmatter declares at
// minimum a name and a description.
package skills

// FileName is the descriptor file that anchors a skill directory.
const FileName = "SKILL.md"

// Skill is the raw install payload produced by discovery: the declared
// metadata plus the source directory and the raw descriptor text used for
// content fingerprinting.
type Skill struct {
	Name          string // Declared name from frontmatter
	Description   string // Declared description from frontmatter
	Directory     string // Full path to the skill directory
	DescriptorRaw string // Full SKILL.md content, frontmatter included
	Internal      bool   // Flagged internal in frontmatter metadata
}

// Metadata is the YAML frontmatter of a SKILL.md file.
type Metadata struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Internal    bool   `mapstructure:"internal"`
}
