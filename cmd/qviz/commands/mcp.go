package commands

import (
	"github.com/spf13/cobra"
	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/mcp"
)

// McpCmd runs the MCP stdio server exposing graph tools to agent runtimes
var McpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose graph tools over MCP stdio",
	Long: `Run an MCP (Model Context Protocol) server on stdin/stdout.

Exposed tools: graph_render, graph_stats, graph_search, spec_save,
spec_load. Stdout carries the protocol, so all logging goes to stderr
in JSON.`,
	RunE: runMcp,
}

func runMcp(cmd *cobra.Command, args []string) error {
	// JSON logs keep stdout clean for the protocol stream.
	if err := logger.Initialize(true); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase("")
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	return mcp.NewServer(database, cfg).Serve()
}
