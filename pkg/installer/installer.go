// Package installer places skill content into agent target directories. It
// supports two modes: link mode keeps a single canonical copy per scope and
// points each target at it with a relative symlink, degrading to a full
// copy when linking is unsupported; copy mode gives every target an
// independent copy and never touches the canonical location.
package installer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

// Mode selects how skill content reaches a target.
type Mode string

// Installation modes
const (
	ModeLink Mode = "link"
	ModeCopy Mode = "copy"
)

// Options control a single installation.
type Options struct {
	Scope   paths.Scope
	Mode    Mode
	BaseDir string // working directory for local scope; "" means the process cwd
}

// Result is the outcome of one (skill, target) installation attempt.
type Result struct {
	Skill         string
	AgentID       string
	Success       bool
	Path          string // where the skill ended up for this target
	CanonicalPath string // populated in link mode only
	Mode          Mode
	SymlinkFailed bool // link creation failed and a copy was made instead
	Err           error
}

// Installer performs installations. The zero value is not usable; call New.
type Installer struct {
	symlink func(oldname, newname string) error
}

// Option configures an Installer.
type Option func(*Installer)

// WithSymlinkFunc overrides symlink creation, for tests exercising the
// link-to-copy fallback.
func WithSymlinkFunc(fn func(oldname, newname string) error) Option {
	return func(i *Installer) { i.symlink = fn }
}

// New creates an Installer.
func New(opts ...Option) *Installer {
	i := &Installer{symlink: os.Symlink}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install places one skill into one agent target. Scope-support and
// path-safety violations fail before any filesystem mutation. A link-mode
// install whose symlink cannot be created falls back to copying into the
// target path and still reports success, with SymlinkFailed set.
func (i *Installer) Install(ctx context.Context, skill *skills.Skill, agent paths.Target, opts Options) Result {
	result := Result{
		Skill: skill.Name,
		Mode:  opts.Mode,
	}
	if a, ok := agent.(*agents.Agent); ok {
		result.AgentID = a.ID()
	}

	targetPath, err := paths.TargetSkillDir(agent, opts.Scope, opts.BaseDir, skill.Name)
	if err != nil {
		result.Err = err
		return result
	}
	result.Path = targetPath

	log := logger.G(ctx).WithField("skill", skill.Name).WithField("path", targetPath)

	if opts.Mode == ModeCopy {
		if err := clearAndCopy(skill.Directory, targetPath); err != nil {
			result.Err = err
			return result
		}
		log.Debug("installed skill copy")
		result.Success = true
		return result
	}

	canonicalPath, err := paths.CanonicalSkillDir(opts.Scope, opts.BaseDir, skill.Name)
	if err != nil {
		result.Err = err
		return result
	}
	result.CanonicalPath = canonicalPath

	if err := clearAndCopy(skill.Directory, canonicalPath); err != nil {
		result.Err = errors.Wrap(err, "failed to populate canonical copy")
		return result
	}

	if err := i.link(canonicalPath, targetPath); err != nil {
		// Linking is unsupported here (filesystem, privileges); the
		// contract is to degrade to an independent copy, not to fail.
		log.WithError(err).Debug("symlink failed, falling back to copy")
		if copyErr := clearAndCopy(skill.Directory, targetPath); copyErr != nil {
			result.Err = copyErr
			return result
		}
		result.SymlinkFailed = true
	}

	log.Debug("installed skill link")
	result.Success = true
	return result
}

// link points targetPath at canonicalPath with a relative symlink, so the
// tree stays valid if both bases move together. An existing correct link is
// left alone; anything else at the target path is removed first.
func (i *Installer) link(canonicalPath, targetPath string) error {
	if fi, err := os.Lstat(targetPath); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			if dest, err := os.Readlink(targetPath); err == nil {
				resolved := dest
				if !filepath.IsAbs(resolved) {
					resolved = filepath.Join(filepath.Dir(targetPath), resolved)
				}
				if filepath.Clean(resolved) == filepath.Clean(canonicalPath) {
					return nil
				}
			}
			// Broken or stale link: replace it.
		}
		if err := os.RemoveAll(targetPath); err != nil {
			return errors.Wrap(err, "failed to remove existing target path")
		}
	}

	parent := filepath.Dir(targetPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrap(err, "failed to create target parent directory")
	}

	rel, err := filepath.Rel(parent, canonicalPath)
	if err != nil {
		rel = canonicalPath
	}
	return i.symlink(rel, targetPath)
}

// Summary aggregates a multi-target installation of one skill.
type Summary struct {
	Results   []Result
	Succeeded int
}

// Err returns the per-target failure breakdown, or nil when every target
// succeeded.
func (s *Summary) Err() error {
	var merr *multierror.Error
	for _, r := range s.Results {
		if !r.Success {
			merr = multierror.Append(merr, errors.Wrapf(r.Err, "agent %s", r.AgentID))
		}
	}
	return merr.ErrorOrNil()
}

// InstallToAgents installs one skill into several agent targets in
// parallel. A failure for one target never aborts the others; callers
// inspect the Summary for the per-target breakdown and are expected to
// record the skill in the lock store once, after all targets resolve.
func (i *Installer) InstallToAgents(ctx context.Context, skill *skills.Skill, targets []*agents.Agent, opts Options) *Summary {
	summary := &Summary{Results: make([]Result, len(targets))}

	g, gctx := errgroup.WithContext(ctx)
	for idx, agent := range targets {
		idx, agent := idx, agent
		g.Go(func() error {
			summary.Results[idx] = i.Install(gctx, skill, agent, opts)
			return nil
		})
	}
	_ = g.Wait() // per-target failures live in the results

	for _, r := range summary.Results {
		if r.Success {
			summary.Succeeded++
		}
	}
	return summary
}
