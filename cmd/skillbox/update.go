package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
	"github.com/skillbox-dev/skillbox/pkg/repo"
	"github.com/skillbox-dev/skillbox/pkg/skills"
	"github.com/skillbox-dev/skillbox/pkg/updates"
)

var updateCmd = &cobra.Command{
	Use:   "update [skill]",
	Short: "Check installed skills for upstream changes",
	Long: `Compare each recorded skill's installed descriptor against its source
and report which ones have changed upstream. With --apply, changed
skills are reinstalled from their source.

Skills installed from local directories are compared in place; skills
without a lock record cannot be checked.

Examples:
  skillbox update
  skillbox update code-review
  skillbox update --apply`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		scope, err := parseScope(mustString(cmd, "scope"))
		if err != nil {
			return err
		}
		apply, _ := cmd.Flags().GetBool("apply")
		dismiss, _ := cmd.Flags().GetBool("dismiss")

		store, err := lockfile.NewStore()
		if err != nil {
			return err
		}
		doc := store.Read()
		if len(doc.Skills) == 0 {
			presenter.Info("No recorded skills to check")
			return nil
		}

		entries := doc.Skills
		if len(args) == 1 {
			entry, ok := store.GetSkill(args[0])
			if !ok {
				return errors.Errorf("skill %q has no install record", args[0])
			}
			entries = map[string]*lockfile.SkillEntry{args[0]: entry}
		}

		fetcher := repo.NewFetcher()
		detector := updates.New(fetcher)

		stale := map[string]*lockfile.SkillEntry{}
		for name, entry := range entries {
			result, err := detector.CheckForUpdates(ctx, name, entry.Source, scope)
			if err != nil {
				presenter.Error(err, fmt.Sprintf("checking %s", name))
				continue
			}
			if !result.HasUpdate {
				presenter.Info(fmt.Sprintf("%s is up to date", name))
				continue
			}

			// A dismissal is scoped to one remote revision; new upstream
			// changes surface again.
			key := dismissKey(name, result.RemoteHash)
			if dismiss {
				if err := store.Dismiss(key); err != nil {
					return err
				}
				presenter.Info(fmt.Sprintf("Dismissed the pending update for %s", name))
				continue
			}
			if store.IsDismissed(key) && !apply {
				continue
			}

			stale[name] = entry
			presenter.Warning(fmt.Sprintf("%s has upstream changes", name))
		}
		if dismiss {
			return nil
		}

		if len(stale) == 0 {
			presenter.Success("All skills are up to date")
			return nil
		}
		if !apply {
			presenter.Info(fmt.Sprintf("%d skill(s) have updates. Run with --apply to reinstall", len(stale)))
			return nil
		}

		registry, err := agents.Load()
		if err != nil {
			return err
		}
		var targets []*agents.Agent
		for _, id := range store.LastSelectedAgents() {
			if agent, err := registry.Get(id); err == nil {
				targets = append(targets, agent)
			}
		}
		if len(targets) == 0 {
			targets = registry.DetectPresent(ctx)
		}
		if len(targets) == 0 {
			return errors.New("no agent targets available for reinstall")
		}

		inst := installer.New()
		for name, entry := range stale {
			if err := reinstall(cmd, inst, fetcher, store, targets, name, entry, scope); err != nil {
				presenter.Error(err, fmt.Sprintf("updating %s", name))
			}
		}
		return nil
	},
}

func reinstall(cmd *cobra.Command, inst *installer.Installer, fetcher *repo.Fetcher, store *lockfile.Store, targets []*agents.Agent, name string, entry *lockfile.SkillEntry, scope paths.Scope) error {
	ctx := cmd.Context()

	dir, err := fetcher.Fetch(ctx, entry.Source, "")
	if err != nil {
		return err
	}
	defer fetcher.Cleanup(dir)

	discovered, err := skills.Discover(dir, skills.WithSubpath(entry.SkillPath), skills.WithInternal(true))
	if err != nil {
		return err
	}

	for _, skill := range discovered {
		if paths.Sanitize(skill.Name) != paths.Sanitize(name) {
			continue
		}
		summary := inst.InstallToAgents(ctx, skill, targets, installer.Options{Scope: scope, Mode: installer.ModeLink})
		if summary.Succeeded == 0 {
			return errors.Errorf("reinstall failed for every target: %v", summary.Err())
		}
		updated := *entry
		updated.SkillFolderHash = updates.Fingerprint([]byte(skill.DescriptorRaw))
		if err := store.UpsertSkill(skill.Name, updated); err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("Updated %s (%d/%d targets)", skill.Name, summary.Succeeded, len(summary.Results)))
		return nil
	}
	return errors.Errorf("skill %s no longer present in source %s", name, entry.Source)
}

func dismissKey(name, remoteHash string) string {
	return "update:" + paths.Sanitize(name) + ":" + remoteHash
}

func init() {
	updateCmd.Flags().Bool("apply", false, "Reinstall skills that have upstream changes")
	updateCmd.Flags().Bool("dismiss", false, "Stop reporting the currently pending updates")
	updateCmd.Flags().String("scope", "shared", "Scope to check: shared or local")
}
