package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/QVIZ/errors"
)

// ConfigSource names the cascade layer a value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/qviz/am.toml
	SourceUser        ConfigSource = "user"        // ~/.qviz/am.toml
	SourceUserUI      ConfigSource = "user_ui"     // ~/.qviz/am_from_ui.toml
	SourceProject     ConfigSource = "project"     // project am.toml
	SourceEnvironment ConfigSource = "environment" // QVIZ_* env vars
)

// SourceInfo pairs a cascade layer with the file or env var behind it
type SourceInfo struct {
	Source ConfigSource
	Path   string
}

// SettingInfo is one effective setting and where it was decided
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection is the flattened view `am path --sources` prints
type ConfigIntrospection struct {
	ConfigFile string        `json:"config_file"`
	Settings   []SettingInfo `json:"settings"`
}

// GetConfigIntrospection flattens the effective config with per-key
// provenance. Sources come from load-time tracking (see ConfigSources in
// load.go) so the answer matches exactly what was merged.
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	v := GetViper()

	if len(ConfigSources) == 0 {
		if _, err := Load(); err != nil {
			return nil, errors.Wrap(err, "load config for introspection")
		}
	}

	intro := &ConfigIntrospection{
		ConfigFile: v.ConfigFileUsed(),
	}
	intro.collect(v.AllSettings(), "")
	return intro, nil
}

// collect walks nested viper settings depth-first in sorted key order
func (ci *ConfigIntrospection) collect(settings map[string]interface{}, prefix string) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := settings[key].(map[string]interface{}); ok {
			ci.collect(nested, fullKey)
			continue
		}
		src := sourceFor(fullKey)
		ci.Settings = append(ci.Settings, SettingInfo{
			Key:        fullKey,
			Value:      settings[key],
			Source:     src.Source,
			SourcePath: src.Path,
		})
	}
}

// sourceFor resolves the layer for one key. Environment wins over any
// file layer; untracked keys are built-in defaults.
func sourceFor(key string) SourceInfo {
	envKey := "QVIZ_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if os.Getenv(envKey) != "" {
		return SourceInfo{Source: SourceEnvironment, Path: envKey}
	}
	if si, ok := ConfigSources[key]; ok {
		return si
	}
	return SourceInfo{Source: SourceDefault, Path: "built-in default"}
}
