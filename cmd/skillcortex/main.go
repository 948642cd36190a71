package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillcortex/skillcortex/pkg/config"
	"github.com/skillcortex/skillcortex/pkg/logger"
	"github.com/skillcortex/skillcortex/pkg/presenter"
)

var rootCmd = &cobra.Command{
	Use:   "skillcortex",
	Short: "Skill index MCP server",
	Long: `skillcortex indexes SKILL.md skill definitions scattered across one or
more root directories and exposes them for lookup, browsing by category,
and search, over the Model Context Protocol.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.SetLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetFormat(viper.GetString("log_format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	viper.SetEnvPrefix("SKILLCORTEX")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillcortex")
	viper.AddConfigPath("./.skillcortex")
	_ = viper.ReadInConfig()

	config.SetDefaults()
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt or json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	// Flag defaults mirror config.SetDefaults: a bound flag's default
	// shadows viper's own default.
	rootCmd.PersistentFlags().StringSlice("root", []string{"./.skills"}, "Skill root directory (repeatable, priority order)")
	rootCmd.PersistentFlags().String("cache-path", "./.skillcortex/index.json", "Index cache file location")
	rootCmd.PersistentFlags().String("tags-path", "./.skillcortex/tags.txt", "Tag vocabulary file location")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("skill_roots", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("cache_path", rootCmd.PersistentFlags().Lookup("cache-path"))
	viper.BindPFlag("tags_path", rootCmd.PersistentFlags().Lookup("tags-path"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx := logger.WithLogger(context.Background(), logger.L)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
