package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillbox-dev/skillbox/pkg/catalog"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search the skill catalog",
	Long: `Search the public skill catalog for skills matching a query. Results
show the source locator to pass to 'skillbox install'.

Examples:
  skillbox search code review
  skillbox search terraform`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		var opts []catalog.Option
		if baseURL := viper.GetString("catalog_url"); baseURL != "" {
			opts = append(opts, catalog.WithBaseURL(baseURL))
		}

		entries, err := catalog.NewClient(opts...).Search(ctx, query)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			presenter.Info(fmt.Sprintf("No skills matched %q", query))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
		for _, e := range entries {
			desc := e.Description
			if len(desc) > 72 {
				desc = desc[:69] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Source, desc)
		}
		return w.Flush()
	},
}
