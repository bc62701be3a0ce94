package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

func init() {
	viper.SetEnvPrefix("SKILLBOX")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.agents")
	viper.AddConfigPath(".")

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("catalog_url", "")

	// Config file is optional
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillbox",
	Short: "Install agent skills across every AI coding tool you use",
	Long: `skillbox installs reusable skills (directories anchored by a SKILL.md
descriptor) from git repositories into the agents that consume them:
Claude Code, Codex, Cursor, and friends.

A single canonical copy per scope is kept under ` + "`.agents/skills`" + ` and
linked into each agent's own skills directory; agents on filesystems
without symlink support transparently get independent copies instead.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log_format"))

		quiet, _ := cmd.Flags().GetBool("quiet")
		presenter.SetQuiet(quiet)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
