package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/QVIZ/errors"
)

var (
	globalConfig  *Config
	viperInstance *viper.Viper
)

// ConfigSources records which file (or env var) supplied each key during the
// last load. Introspection reads it; mergeConfigFiles writes it.
var ConfigSources = map[string]SourceInfo{}

// configLayer is one file in the merge cascade
type configLayer struct {
	path   string
	source ConfigSource
}

// projectConfigNames are searched in order when walking up from the
// working directory.
var projectConfigNames = []string{"am.toml", "config.toml"}

// Load reads the QVIZ core configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from one specific file, skipping the
// cascade and environment binding. Defaults still apply.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper builds the shared Viper instance: defaults, then the file
// cascade, with QVIZ_* env vars winning over everything.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("QVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)
	SetDefaults(v)
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// findProjectConfig walks up from the working directory looking for a
// project config file. am.toml beats config.toml within each directory.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range projectConfigNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// QVizDir returns the user configuration directory (~/.qviz), creating it if
// missing.
func QVizDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(homeDir, ".qviz")
	os.MkdirAll(dir, DefaultDirPermissions)
	return dir
}

// mergeConfigFiles merges configuration files lowest-precedence first:
// system < user < user UI < project. Each setting's origin is recorded in
// ConfigSources so later layers overwrite earlier attributions too.
func mergeConfigFiles(v *viper.Viper) {
	qvizDir := QVizDir()

	layers := []configLayer{
		{"/etc/qviz/am.toml", SourceSystem},
		{filepath.Join(qvizDir, "am.toml"), SourceUser},
		{filepath.Join(qvizDir, "am_from_ui.toml"), SourceUserUI},
	}
	if projectConfig := findProjectConfig(); projectConfig != "" {
		layers = append(layers, configLayer{projectConfig, SourceProject})
	}

	for _, layer := range layers {
		mergeLayer(v, layer)
	}
}

// mergeLayer folds one config file into v; missing or unreadable files are
// skipped silently since every layer is optional.
func mergeLayer(v *viper.Viper, layer configLayer) {
	if _, err := os.Stat(layer.path); err != nil {
		return
	}

	fileViper := viper.New()
	fileViper.SetConfigFile(layer.path)
	fileViper.SetConfigType("toml")
	if err := fileViper.ReadInConfig(); err != nil {
		return
	}

	for key, value := range fileViper.AllSettings() {
		v.Set(key, value)
	}
	for _, key := range fileViper.AllKeys() {
		ConfigSources[key] = SourceInfo{Source: layer.source, Path: layer.path}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} { return initViper().Get(key) }

// GetString returns a configuration value as string
func GetString(key string) string { return initViper().GetString(key) }

// GetBool returns a configuration value as bool
func GetBool(key string) bool { return initViper().GetBool(key) }

// GetInt returns a configuration value as int
func GetInt(key string) int { return initViper().GetInt(key) }

// GetFloat64 returns a configuration value as float64
func GetFloat64(key string) float64 { return initViper().GetFloat64(key) }

// GetDatabasePath returns the configured database path. DB_PATH overrides
// the config for dev-mode convenience.
func GetDatabasePath() (string, error) {
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	config, err := Load()
	if err != nil {
		return "", err
	}
	return config.GetDatabasePath(), nil
}
