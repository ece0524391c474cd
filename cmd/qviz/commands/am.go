package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/sym"
	"gopkg.in/yaml.v3"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage QVIZ configuration",
	Long: sym.AM + ` am — Manage QVIZ configuration ("I am")

Display and manage QVIZ configuration settings.

Configuration sources (in order of precedence):
1. Environment variables (QVIZ_* prefix)
2. Project config (./am.toml or ./config.toml, searched upward)
3. Console-managed config (~/.qviz/am_from_ui.toml)
4. User config (~/.qviz/am.toml)
5. System config (/etc/qviz/am.toml)
6. Default values

Examples:
  qviz am show                    # Show current configuration
  qviz am get server.port         # Get one config value
  qviz am set export.scale 3      # Persist one setting
  qviz am path                    # Show the config cascade`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged QVIZ configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., server.port, layout.seed)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long: `Persist a configuration value to the console-managed config file
(~/.qviz/am_from_ui.toml, written with a rotating backup).

Settable keys:
  server.log_theme        gruvbox or everforest
  server.browser_command  shell command used to open the console
  panel.width_fraction    split panel width as a fraction of the viewport
  panel.transition_ms     open/close transition duration
  export.scale            PNG export pixel scale
  layout.seed             deterministic layout seed`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file locations",
	Long:  "List every config file in the cascade and whether it exists.",
	RunE:  runAmPath,
}

var showSources bool

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amPathCmd.Flags().BoolVar(&showSources, "sources", false, "Show which layer supplied each setting")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amPathCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Printf("# QVIZ configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# QVIZ configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}

	fmt.Println(am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	var err error
	switch key {
	case "server.log_theme":
		err = am.UpdateServerLogTheme(value)
	case "server.browser_command":
		err = am.UpdateServerBrowserCommand(value)
	case "panel.width_fraction":
		f, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil {
			return fmt.Errorf("%s expects a number: %w", key, parseErr)
		}
		err = am.UpdatePanelWidthFraction(f)
	case "panel.transition_ms":
		n, parseErr := strconv.Atoi(value)
		if parseErr != nil {
			return fmt.Errorf("%s expects an integer: %w", key, parseErr)
		}
		err = am.UpdatePanelTransitionMs(n)
	case "export.scale":
		n, parseErr := strconv.Atoi(value)
		if parseErr != nil {
			return fmt.Errorf("%s expects an integer: %w", key, parseErr)
		}
		err = am.UpdateExportScale(n)
	case "layout.seed":
		n, parseErr := strconv.ParseInt(value, 10, 64)
		if parseErr != nil {
			return fmt.Errorf("%s expects an integer: %w", key, parseErr)
		}
		err = am.UpdateLayoutSeed(n)
	default:
		return fmt.Errorf("key %q is not settable (run 'qviz am set --help' for the list)", key)
	}
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}

	fmt.Printf("✓ %s = %s\n", key, value)
	return nil
}

func runAmPath(cmd *cobra.Command, args []string) error {
	home, _ := os.UserHomeDir()
	locations := []struct {
		label string
		path  string
	}{
		{"system", "/etc/qviz/am.toml"},
		{"user", filepath.Join(home, ".qviz", "am.toml")},
		{"console", am.GetUIConfigPath()},
	}

	fmt.Println("Configuration cascade (later overrides earlier):")
	for _, loc := range locations {
		marker := " "
		if loc.path != "" {
			if _, err := os.Stat(loc.path); err == nil {
				marker = "✓"
			}
		}
		fmt.Printf("  %s [%s] %s\n", marker, loc.label, loc.path)
	}

	// Project config is found by walking up from the working directory.
	if cwd, err := os.Getwd(); err == nil {
		fmt.Printf("    [project] ./am.toml or ./config.toml (searched upward from %s)\n", cwd)
	}
	fmt.Println("    [env] QVIZ_* environment variables")

	if showSources {
		intro, err := am.GetConfigIntrospection()
		if err != nil {
			return fmt.Errorf("failed to introspect config: %w", err)
		}
		fmt.Println("\nEffective settings:")
		for _, s := range intro.Settings {
			fmt.Printf("  %-28s = %-20v (%s: %s)\n", s.Key, s.Value, s.Source, s.SourcePath)
		}
	}
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("✓ Configuration is valid")
	return nil
}
