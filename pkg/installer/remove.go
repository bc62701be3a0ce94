package installer

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/paths"
)

// RemovalResult is the outcome of removing one skill from one target.
type RemovalResult struct {
	AgentID string
	Path    string
	Removed bool // false when there was nothing to remove
	Err     error
}

// Uninstall removes a skill from the given targets. When removeCanonical is
// set the canonical copy for the scope is deleted as well; callers do that
// only on full removal, since remaining targets may still link to it.
func Uninstall(ctx context.Context, rawName string, targets []*agents.Agent, opts Options, removeCanonical bool) ([]RemovalResult, error) {
	results := make([]RemovalResult, 0, len(targets))

	for _, agent := range targets {
		result := RemovalResult{AgentID: agent.ID()}

		targetPath, err := paths.TargetSkillDir(agent, opts.Scope, opts.BaseDir, rawName)
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		result.Path = targetPath

		if _, err := os.Lstat(targetPath); err != nil {
			results = append(results, result) // nothing there; not an error
			continue
		}
		if err := os.RemoveAll(targetPath); err != nil {
			result.Err = errors.Wrap(err, "failed to remove skill from target")
			results = append(results, result)
			continue
		}
		result.Removed = true
		results = append(results, result)
		logger.G(ctx).WithField("skill", rawName).WithField("agent", agent.ID()).Debug("removed skill from target")
	}

	if removeCanonical {
		canonicalPath, err := paths.CanonicalSkillDir(opts.Scope, opts.BaseDir, rawName)
		if err != nil {
			return results, err
		}
		if err := os.RemoveAll(canonicalPath); err != nil {
			return results, errors.Wrap(err, "failed to remove canonical copy")
		}
	}

	return results, nil
}
