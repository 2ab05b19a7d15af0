// Package config loads Beam client configuration from layered sources.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/beam-dev/beam/pkg/types"
)

// Load loads configuration from multiple sources (priority order, later wins):
// 1. Global config (~/.beam/)
// 2. XDG global config (~/.config/beam/)
// 3. Project config (<directory>/.beam/ or <directory>/beam.jsonc)
// 4. BEAM_CONFIG file
// 5. BEAM_CONFIG_CONTENT inline JSON
// 6. Environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{
		APIURL:            types.DefaultAPIURL,
		MaxMessageHistory: 100,
	}

	loaded := make(map[string]bool)
	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Home config (~/.beam/)
	if home := os.Getenv("HOME"); home != "" {
		homeDir := filepath.Join(home, ".beam")
		loadOnce(filepath.Join(homeDir, "beam.json"), homeDir)
		loadOnce(filepath.Join(homeDir, "beam.jsonc"), homeDir)
	}

	// 2. XDG config (~/.config/beam/)
	globalPath := globalConfigDir()
	loadOnce(filepath.Join(globalPath, "beam.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "beam.jsonc"), globalPath)

	// 3. Project config
	if directory != "" {
		projectDir := filepath.Join(directory, ".beam")
		loadOnce(filepath.Join(directory, "beam.json"), directory)
		loadOnce(filepath.Join(directory, "beam.jsonc"), directory)
		loadOnce(filepath.Join(projectDir, "beam.json"), projectDir)
		loadOnce(filepath.Join(projectDir, "beam.jsonc"), projectDir)
	}

	// 4. BEAM_CONFIG file override
	if configPath := os.Getenv("BEAM_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 5. BEAM_CONFIG_CONTENT inline JSON
	if content := os.Getenv("BEAM_CONFIG_CONTENT"); content != "" {
		var inline types.Config
		if err := json.Unmarshal([]byte(content), &inline); err == nil {
			mergeConfig(config, &inline)
		}
	}

	// 6. Environment variables (highest priority)
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}
		content, err := os.ReadFile(filePath)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(content))
	})

	return []byte(str)
}

// mergeConfig merges src into dst, src fields winning when set.
func mergeConfig(dst, src *types.Config) {
	if src.Schema != "" {
		dst.Schema = src.Schema
	}
	if src.APIURL != "" {
		dst.APIURL = src.APIURL
	}
	if src.AutoApplyChanges {
		dst.AutoApplyChanges = true
	}
	if src.ShowConfidence {
		dst.ShowConfidence = true
	}
	if src.MaxMessageHistory > 0 {
		dst.MaxMessageHistory = src.MaxMessageHistory
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.Port > 0 {
		dst.Port = src.Port
	}
}

// applyEnvOverrides applies BEAM_* environment variables.
func applyEnvOverrides(config *types.Config) {
	if v := os.Getenv("BEAM_API_URL"); v != "" {
		config.APIURL = v
	}
	if v := os.Getenv("BEAM_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("BEAM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Port = port
		}
	}
	if v := os.Getenv("BEAM_AUTO_APPLY"); v != "" {
		config.AutoApplyChanges = v == "true" || v == "1"
	}
}

// globalConfigDir returns the XDG config directory for beam.
func globalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "beam")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "beam")
}
