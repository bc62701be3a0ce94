// Package inventory reconciles the canonical install list against what the
// known agent targets actually have on disk. The canonical directory, not
// the lock store, is the source of truth for "installed": lock entries only
// decorate the result with provenance when present.
package inventory

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

// InstalledSkill is a derived view of one canonical skill: where it lives,
// which agents hold it, and its recorded provenance if any.
type InstalledSkill struct {
	Name        string
	Description string
	Path        string // canonical skill directory
	Scope       paths.Scope
	Agents      []string // IDs of agents confirmed to hold the skill

	// Provenance copied from the lock entry; zero values when unrecorded.
	Source          string
	SourceType      string
	SourceURL       string
	SkillFolderHash string
	InstalledAt     time.Time
	UpdatedAt       time.Time
}

// ListOptions restrict a listing.
type ListOptions struct {
	Scope       paths.Scope // empty means both scopes
	AgentFilter []string    // agent IDs; empty means all present agents
}

// Lister builds InstalledSkill views.
type Lister struct {
	registry *agents.Registry
	store    *lockfile.Store
	baseDir  string
}

// Option configures a Lister.
type Option func(*Lister)

// WithBaseDir sets the working directory used for local-scope resolution.
func WithBaseDir(dir string) Option {
	return func(l *Lister) { l.baseDir = dir }
}

// New creates a Lister over the given agent registry and lock store.
func New(registry *agents.Registry, store *lockfile.Store, opts ...Option) *Lister {
	l := &Lister{registry: registry, store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListInstalled enumerates canonical skills for the requested scopes and
// confirms per-agent presence. Canonical entries whose descriptor fails to
// parse are skipped silently.
func (l *Lister) ListInstalled(ctx context.Context, opts ListOptions) ([]InstalledSkill, error) {
	scopes := []paths.Scope{paths.ScopeShared, paths.ScopeLocal}
	if opts.Scope != "" {
		scopes = []paths.Scope{opts.Scope}
	}

	candidates := l.registry.DetectPresent(ctx)
	if len(opts.AgentFilter) > 0 {
		allowed := make(map[string]bool, len(opts.AgentFilter))
		for _, id := range opts.AgentFilter {
			allowed[id] = true
		}
		filtered := candidates[:0]
		for _, a := range candidates {
			if allowed[a.ID()] {
				filtered = append(filtered, a)
			}
		}
		candidates = filtered
	}

	var views []InstalledSkill
	for _, scope := range scopes {
		canonicalDir, err := paths.CanonicalDir(scope, l.baseDir)
		if err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(canonicalDir)
		if err != nil {
			continue // nothing installed in this scope yet
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			skillDir := filepath.Join(canonicalDir, entry.Name())
			skill, err := skills.Load(skillDir)
			if err != nil {
				logger.G(ctx).WithField("dir", skillDir).WithError(err).Debug("skipping unparseable canonical entry")
				continue
			}

			view := InstalledSkill{
				Name:        skill.Name,
				Description: skill.Description,
				Path:        skillDir,
				Scope:       scope,
			}

			for _, agent := range candidates {
				base, err := paths.TargetDir(agent, scope, l.baseDir)
				if err != nil {
					continue // shared scope unsupported for this agent
				}
				if matchInTarget(base, entry.Name(), skill) {
					view.Agents = append(view.Agents, agent.ID())
				}
			}

			if lock, ok := l.store.GetSkill(skill.Name); ok {
				view.Source = lock.Source
				view.SourceType = lock.SourceType
				view.SourceURL = lock.SourceURL
				view.SkillFolderHash = lock.SkillFolderHash
				view.InstalledAt = lock.InstalledAt
				view.UpdatedAt = lock.UpdatedAt
			}

			views = append(views, view)
		}
	}

	return views, nil
}
