package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

var removeCmd = &cobra.Command{
	Use:     "remove <skill>",
	Aliases: []string{"rm", "uninstall"},
	Short:   "Remove an installed skill",
	Long: `Remove a skill from agent targets. With no --agent flags the skill is
removed from every known agent along with its canonical copy and lock
entry; with --agent flags only those targets are touched and the
canonical copy stays in place.

Examples:
  skillbox remove code-review
  skillbox remove code-review --agent cursor
  skillbox remove code-review --scope local`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		scope, err := parseScope(mustString(cmd, "scope"))
		if err != nil {
			return err
		}
		agentIDs, _ := cmd.Flags().GetStringSlice("agent")

		registry, err := agents.Load()
		if err != nil {
			return err
		}
		store, err := lockfile.NewStore()
		if err != nil {
			return err
		}

		fullRemoval := len(agentIDs) == 0
		var targets []*agents.Agent
		if fullRemoval {
			targets = registry.All()
		} else {
			for _, id := range agentIDs {
				agent, err := registry.Get(id)
				if err != nil {
					return err
				}
				targets = append(targets, agent)
			}
		}

		results, err := installer.Uninstall(ctx, name, targets, installer.Options{Scope: scope}, fullRemoval)
		removed := 0
		for _, r := range results {
			if r.Err != nil {
				presenter.Error(r.Err, fmt.Sprintf("%s → %s", name, r.AgentID))
				continue
			}
			if r.Removed {
				removed++
			}
		}
		if err != nil {
			return err
		}

		if fullRemoval {
			if err := store.RemoveSkill(name); err != nil {
				presenter.Warning(fmt.Sprintf("Skill removed but lock entry not cleared: %v", err))
			}
		}

		if removed == 0 {
			presenter.Info(fmt.Sprintf("Nothing to remove for %s", name))
			return nil
		}
		presenter.Success(fmt.Sprintf("Removed %s from %d target(s)", name, removed))
		return nil
	},
}

func init() {
	removeCmd.Flags().StringSliceP("agent", "a", nil, "Remove only from these agent IDs (default: all agents plus the canonical copy)")
	removeCmd.Flags().String("scope", "shared", "Scope to remove from: shared or local")
}
