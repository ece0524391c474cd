package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/QVIZ/cmd/qviz/commands"
	"github.com/teranos/QVIZ/logger"
)

var rootCmd = &cobra.Command{
	Use:   "qviz",
	Short: "QVIZ - Interactive knowledge-graph visualization engine",
	Long: `QVIZ - Interactive knowledge-graph visualization.

QVIZ turns graph specs (JSON or YAML) into force-directed visualizations:
a live WebSocket console, one-shot SVG/PNG renders, and a spec store
with shareable slugs.

Available commands:
  serve   - Start the live console server
  render  - Render a spec file to SVG or PNG
  specs   - Manage stored specs
  am      - Manage QVIZ configuration ("I am")
  mcp     - Expose graph tools over MCP stdio
  version - Show version information

Examples:
  qviz serve                      # Start the console server
  qviz render schema.json -o out.svg
  qviz specs list                 # List stored specs
  qviz am get server.port         # Read one config value`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Quiet commands print raw values; zap startup noise would corrupt
		// their output (and the MCP stdio stream).
		switch cmd.Name() {
		case "get", "path", "version", "mcp":
			return nil
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(false, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.RenderCmd)
	rootCmd.AddCommand(commands.SpecsCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.McpCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
