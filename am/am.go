package am

import "fmt"

// Config represents the core QVIZ configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Panel    PanelConfig    `mapstructure:"panel"`
	Export   ExportConfig   `mapstructure:"export"`
}

// DatabaseConfig configures the SQLite spec store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the QVIZ live console server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"` // Server port: nil = default 8777, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogTheme       string   `mapstructure:"log_theme"`       // Color theme: gruvbox, everforest
	BrowserCommand string   `mapstructure:"browser_command"` // Override for opening the console (shell-quoted)
	MaxClients     int      `mapstructure:"max_clients"`     // Concurrent WebSocket client cap (default: 100)

	// Per-client interaction rate limiting
	RatePerSecond float64 `mapstructure:"rate_per_second"` // Sustained intents per second (default: 30)
	RateBurst     int     `mapstructure:"rate_burst"`      // Burst allowance (default: 60)
}

// Server port constants
const (
	DefaultServerPort  = 8777 // Development port (easy to type, above privileged range)
	FallbackServerPort = 8787 // Fallback when the default is taken
)

// LayoutConfig configures the force simulation
type LayoutConfig struct {
	Seed            int64 `mapstructure:"seed"`              // 0 = time-derived; fixed values reproduce layouts
	CompactBudgetMs int   `mapstructure:"compact_budget_ms"` // Wall-clock budget for inline previews (default: 3000)
}

// PanelConfig configures the split-panel surface geometry and timing
type PanelConfig struct {
	WidthFraction float64 `mapstructure:"width_fraction"` // Viewport share when open (default: 0.38)
	MinWidth      float64 `mapstructure:"min_width"`      // Width floor in scene units (default: 320)
	ChromeHeight  float64 `mapstructure:"chrome_height"`  // Fullscreen top offset (default: 64)
	TransitionMs  int     `mapstructure:"transition_ms"`  // Open/close animation time box (default: 280)
}

// ExportConfig configures scene image export
type ExportConfig struct {
	Scale     int    `mapstructure:"scale"`     // Pixel density multiplier (default: 2)
	Directory string `mapstructure:"directory"` // Output directory for CLI exports (default: ".")
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "qviz.db" // Fallback default
	}
	return c.Database.Path
}

// GetServerPort returns the configured port or the default
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil || *c.Server.Port == 0 {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// GetServerLogTheme returns the log theme (default: everforest)
func (c *Config) GetServerLogTheme() string {
	if c.Server.LogTheme == "" {
		return "everforest"
	}
	return c.Server.LogTheme
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Server: {Port: %d, LogTheme: %s}, Panel: {WidthFraction: %.2f}}",
		c.GetDatabasePath(), c.GetServerPort(), c.GetServerLogTheme(), c.Panel.WidthFraction)
}
