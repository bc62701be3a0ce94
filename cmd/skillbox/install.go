package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
	"github.com/skillbox-dev/skillbox/pkg/repo"
	"github.com/skillbox-dev/skillbox/pkg/skills"
	"github.com/skillbox-dev/skillbox/pkg/updates"
)

var installCmd = &cobra.Command{
	Use:   "install <source>[@ref]",
	Short: "Install skills from a repository into your agents",
	Long: `Install every skill found in a source repository into the selected
agent targets.

The source is a GitHub "owner/repo" shorthand, a full git URL, or a local
directory. Skills are recognized by a SKILL.md descriptor at the source
root or under a skills/ directory.

Examples:
  skillbox install anthropics/skills
  skillbox install anthropics/skills@main
  skillbox install ./my-skill --agent claude-code
  skillbox install user/repo --scope local --mode copy
  skillbox install user/repo --path bundles/review`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		scope, err := parseScope(mustString(cmd, "scope"))
		if err != nil {
			return err
		}
		mode, err := parseMode(mustString(cmd, "mode"))
		if err != nil {
			return err
		}
		agentIDs, _ := cmd.Flags().GetStringSlice("agent")
		subpath := mustString(cmd, "path")
		includeInternal, _ := cmd.Flags().GetBool("include-internal")
		assumeYes, _ := cmd.Flags().GetBool("yes")
		force, _ := cmd.Flags().GetBool("force")

		registry, err := agents.Load()
		if err != nil {
			return err
		}
		store, err := lockfile.NewStore()
		if err != nil {
			return err
		}

		targets, err := selectAgents(ctx, registry, store, agentIDs, assumeYes)
		if err != nil {
			return err
		}

		source, ref := parseSourceRef(args[0])
		sourceType, sourceURL, err := repo.Classify(source)
		if err != nil {
			return err
		}

		fetcher := repo.NewFetcher()
		presenter.Info(fmt.Sprintf("Fetching %s...", source))
		dir, err := fetcher.Fetch(ctx, source, ref)
		if err != nil {
			return err
		}
		defer fetcher.Cleanup(dir)

		discovered, err := skills.Discover(dir,
			skills.WithSubpath(subpath),
			skills.WithInternal(includeInternal),
		)
		if err != nil {
			return errors.Wrapf(err, "no installable skills in %s", source)
		}

		inst := installer.New()
		opts := installer.Options{Scope: scope, Mode: mode}

		installedAny := false
		for _, skill := range discovered {
			fingerprint := updates.Fingerprint([]byte(skill.DescriptorRaw))
			if !force {
				if existing, ok := store.GetSkill(skill.Name); ok && existing.SkillFolderHash == fingerprint {
					presenter.Info(fmt.Sprintf("%s is already installed and unchanged (use --force to reinstall)", skill.Name))
					installedAny = true
					continue
				}
			}

			summary := inst.InstallToAgents(ctx, skill, targets, opts)
			reportSummary(skill, summary)

			if summary.Succeeded == 0 {
				continue
			}
			installedAny = true

			// One lock write per skill, after all targets resolve.
			err := store.UpsertSkill(skill.Name, lockfile.SkillEntry{
				Source:          source,
				SourceType:      string(sourceType),
				SourceURL:       sourceURL,
				SkillPath:       subpath,
				SkillFolderHash: fingerprint,
			})
			if err != nil {
				presenter.Warning(fmt.Sprintf("Skill %s installed but not recorded: %v", skill.Name, err))
			}
		}

		if !installedAny {
			return errors.New("installation failed for every target")
		}

		ids := make([]string, 0, len(targets))
		for _, t := range targets {
			ids = append(ids, t.ID())
		}
		if err := store.SaveSelectedAgents(ids); err != nil {
			presenter.Warning(fmt.Sprintf("Could not remember agent selection: %v", err))
		}
		return nil
	},
}

func reportSummary(skill *skills.Skill, summary *installer.Summary) {
	var ok, fellBack []string
	for _, r := range summary.Results {
		switch {
		case r.Success && r.SymlinkFailed:
			fellBack = append(fellBack, r.AgentID)
			ok = append(ok, r.AgentID)
		case r.Success:
			ok = append(ok, r.AgentID)
		default:
			presenter.Error(r.Err, fmt.Sprintf("%s → %s", skill.Name, r.AgentID))
		}
	}

	if len(ok) > 0 {
		presenter.Success(fmt.Sprintf("Installed %s to %s (%d/%d targets)",
			skill.Name, strings.Join(ok, ", "), summary.Succeeded, len(summary.Results)))
	}
	if len(fellBack) > 0 {
		presenter.Warning(fmt.Sprintf("Symlinks unavailable for %s; used full copies instead", strings.Join(fellBack, ", ")))
	}
}

func mustString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func init() {
	installCmd.Flags().StringSliceP("agent", "a", nil, "Agent IDs to install to (default: interactive selection among detected agents)")
	installCmd.Flags().String("scope", "shared", "Installation scope: shared (home) or local (current directory)")
	installCmd.Flags().String("mode", "link", "Installation mode: link (canonical copy + symlinks) or copy")
	installCmd.Flags().String("path", "", "Subpath within the source to discover skills in")
	installCmd.Flags().Bool("include-internal", false, "Include skills flagged internal in their metadata")
	installCmd.Flags().BoolP("force", "f", false, "Reinstall even when the skill is already installed and unchanged")
	installCmd.Flags().BoolP("yes", "y", false, "Skip the interactive agent picker and use all detected agents")
}
