package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/agents"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List supported agent targets",
	Long: `List every agent target skillbox knows how to install into, with its
skills directories and whether it was detected on this machine.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := agents.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRESENT\tSHARED DIR\tLOCAL DIR")
		for _, agent := range registry.All() {
			present := "-"
			if agent.IsPresent() {
				present = "yes"
			}
			shared := agent.SharedSkillsDir()
			if shared == "" {
				shared = "(unsupported)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				agent.ID(), agent.DisplayName(), present, shared, agent.LocalSkillsDir())
		}
		return w.Flush()
	},
}
