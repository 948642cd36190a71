package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/skillcortex/skillcortex/pkg/config"
	"github.com/skillcortex/skillcortex/pkg/logger"
	"github.com/skillcortex/skillcortex/pkg/mcpserver"
	"github.com/skillcortex/skillcortex/pkg/presenter"
	"github.com/skillcortex/skillcortex/pkg/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the skill index MCP server. The server speaks the Model Context
Protocol over stdio; logs go to stderr so stdout stays clean for the
protocol stream. The index is built lazily on the first tool call, from
the cache when one exists.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// stdout carries the protocol stream.
		logger.SetOutput(os.Stderr)

		cfg, err := config.Load()
		if err != nil {
			presenter.Error(err, "invalid configuration")
			return err
		}
		if err := cfg.EnsureWritableRoot(); err != nil {
			presenter.Error(err, "failed to prepare skill root")
			return err
		}

		logger.G(ctx).WithFields(map[string]interface{}{
			"roots":      cfg.Roots,
			"cache_path": cfg.CachePath,
			"tags_path":  cfg.TagsPath,
		}).Info("Starting skillcortex MCP server")

		return server.ServeStdio(mcpserver.New(state.New(cfg)))
	},
}
