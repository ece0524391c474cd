package am

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/QVIZ/errors"
)

// backupDepth is how many rotated copies of a config file we keep
const backupDepth = 3

// createBackup rotates .back1/.back2/.back3 copies before a config write.
// The oldest copy falls off the end; the current file becomes .back1.
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	backupPath := func(n int) string {
		return fmt.Sprintf("%s.back%d", configPath, n)
	}

	// Deletion failure of the oldest copy must not block the save
	oldest := backupPath(backupDepth)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		fmt.Printf("⚠️  Failed to delete old backup %s: %v\n", oldest, err)
	}

	for n := backupDepth - 1; n >= 1; n-- {
		src := backupPath(n)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, backupPath(n+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate backup %s", src)
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupPath(1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write backup copy")
	}
	return nil
}

// GetUIConfigPath returns the path to the console-managed config file in
// ~/.qviz/am_from_ui.toml
func GetUIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".qviz", "am_from_ui.toml")
}

// loadOrInitializeUIConfig loads the UI config file, or starts an empty one
func loadOrInitializeUIConfig() (map[string]interface{}, string, error) {
	configPath := GetUIConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	qvizDir := filepath.Dir(configPath)
	if err := os.MkdirAll(qvizDir, 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .qviz directory")
	}

	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse UI config")
		}
	} else {
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveUIConfig writes the config to the UI config file with backup
func saveUIConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write UI config")
	}

	return nil
}

// updateSection sets one key in one section of the UI config and persists it
func updateSection(section, key string, value interface{}) error {
	config, configPath, err := loadOrInitializeUIConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load UI config")
	}

	var m map[string]interface{}
	if existing, ok := config[section].(map[string]interface{}); ok {
		m = existing
	} else {
		m = make(map[string]interface{})
	}

	m[key] = value
	config[section] = m

	return saveUIConfig(config, configPath)
}

// UpdateServerLogTheme updates the server.log_theme setting in UI config
func UpdateServerLogTheme(theme string) error {
	return updateSection("server", "log_theme", theme)
}

// UpdateServerBrowserCommand updates the server.browser_command setting in UI config
func UpdateServerBrowserCommand(command string) error {
	return updateSection("server", "browser_command", command)
}

// UpdatePanelWidthFraction updates the panel.width_fraction setting in UI config
func UpdatePanelWidthFraction(fraction float64) error {
	return updateSection("panel", "width_fraction", fraction)
}

// UpdatePanelTransitionMs updates the panel.transition_ms setting in UI config
func UpdatePanelTransitionMs(ms int) error {
	return updateSection("panel", "transition_ms", ms)
}

// UpdateExportScale updates the export.scale setting in UI config
func UpdateExportScale(scale int) error {
	return updateSection("export", "scale", scale)
}

// UpdateLayoutSeed updates the layout.seed setting in UI config
func UpdateLayoutSeed(seed int64) error {
	return updateSection("layout", "seed", seed)
}
