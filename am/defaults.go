package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "qviz.db")

	// Server configuration defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.log_theme", "everforest")
	v.SetDefault("server.max_clients", 100)
	v.SetDefault("server.rate_per_second", 30.0) // Hover streams dominate intent traffic
	v.SetDefault("server.rate_burst", 60)

	// Layout defaults
	v.SetDefault("layout.seed", 0)
	v.SetDefault("layout.compact_budget_ms", 3000)

	// Panel defaults
	v.SetDefault("panel.width_fraction", 0.38)
	v.SetDefault("panel.min_width", 320.0)
	v.SetDefault("panel.chrome_height", 64.0)
	v.SetDefault("panel.transition_ms", 280)

	// Export defaults
	v.SetDefault("export.scale", 2)
	v.SetDefault("export.directory", ".")
}

// BindSensitiveEnvVars explicitly binds deployment-specific configuration to
// environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// Database path
	v.BindEnv("database.path", "QVIZ_DATABASE_PATH")

	// Server binding
	v.BindEnv("server.port", "QVIZ_SERVER_PORT")
	v.BindEnv("server.browser_command", "QVIZ_SERVER_BROWSER_COMMAND")
}
