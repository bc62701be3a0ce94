package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/inventory"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed skills and the agents that hold them",
	Long: `List skills installed in the canonical skills directory, showing which
agent targets each one is confirmed present in. Provenance (source and
install time) is shown when the lock store has a record for the skill.

Examples:
  skillbox list
  skillbox list --scope local
  skillbox list --agent claude-code --agent cursor`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		scopeFlag := mustString(cmd, "scope")
		agentFilter, _ := cmd.Flags().GetStringSlice("agent")

		var scope paths.Scope
		if scopeFlag != "" {
			parsed, err := parseScope(scopeFlag)
			if err != nil {
				return err
			}
			scope = parsed
		}

		registry, err := agents.Load()
		if err != nil {
			return err
		}
		store, err := lockfile.NewStore()
		if err != nil {
			return err
		}

		installed, err := inventory.New(registry, store).ListInstalled(ctx, inventory.ListOptions{
			Scope:       scope,
			AgentFilter: agentFilter,
		})
		if err != nil {
			return err
		}

		if len(installed) == 0 {
			presenter.Info("No skills installed. Try: skillbox install <owner/repo>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCOPE\tAGENTS\tSOURCE")
		for _, s := range installed {
			source := s.Source
			if source == "" {
				source = "-"
			}
			agentCol := "-"
			if len(s.Agents) > 0 {
				agentCol = strings.Join(s.Agents, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Scope, agentCol, source)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().String("scope", "", "Limit to one scope: shared or local (default: both)")
	listCmd.Flags().StringSliceP("agent", "a", nil, "Limit presence checks to these agent IDs")
}
