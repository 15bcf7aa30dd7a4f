// Package config loads the user configuration from ~/.tabdeck/config.toml.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
	"github.com/asheshgoplani/tabdeck/internal/urlutil"
)

// UserConfigFileName is the TOML config file for user preferences
const UserConfigFileName = "config.toml"

// HomeEnv overrides the tabdeck directory.
const HomeEnv = "TABDECK_HOME"

// UserConfig represents user-facing configuration in TOML format
type UserConfig struct {
	Search   SearchSettings   `toml:"search"`
	Commands CommandSettings  `toml:"commands"`
	Snapshot SnapshotSettings `toml:"snapshot"`
	Vault    VaultSettings    `toml:"vault"`
	Web      WebSettings      `toml:"web"`
	Logs     LogSettings      `toml:"logs"`
}

// SearchSettings configures query evaluation
type SearchSettings struct {
	// DefaultScope is "current-window" (default) or "all-windows"
	DefaultScope string `toml:"default_scope"`

	// LocalPatterns are extra URL substrings treated as local by !local
	LocalPatterns []string `toml:"local_patterns"`

	// DuplicateMode is "loose" (default) or "strict"
	DuplicateMode string `toml:"duplicate_mode"`

	// ExtensionPageURL is the prefix of the extension's own UI page.
	// Tabs showing it are hidden from every query.
	ExtensionPageURL string `toml:"extension_page_url"`
}

// CommandSettings configures slash command execution
type CommandSettings struct {
	// FreezeParallelism caps concurrent discards for /freeze (0 = unbounded)
	FreezeParallelism int `toml:"freeze_parallelism"`

	// ConfirmDestructive asks before running /delete from the CLI
	// Default: true
	ConfirmDestructive *bool `toml:"confirm_destructive"`
}

// GetConfirmDestructive returns whether destructive commands need confirmation, defaulting to true
func (c *CommandSettings) GetConfirmDestructive() bool {
	if c.ConfirmDestructive == nil {
		return true
	}
	return *c.ConfirmDestructive
}

// SnapshotSettings locates the tab snapshot written by the browser extension
type SnapshotSettings struct {
	// Path of the snapshot JSON file. Default: ~/.tabdeck/snapshot.json
	Path string `toml:"path"`

	// WatchRateLimit is the maximum number of change notifications per second
	// Default: 4
	WatchRateLimit float64 `toml:"watch_rate_limit"`
}

// VaultSettings locates the vault database
type VaultSettings struct {
	// Path of the SQLite file. Default: ~/.tabdeck/vault.db
	Path string `toml:"path"`
}

// WebSettings configures `tabdeck serve`
type WebSettings struct {
	// ListenAddr is the HTTP listen address. Default: 127.0.0.1:8787
	ListenAddr string `toml:"listen_addr"`

	// Token is required as ?token= or a Bearer header when set
	Token string `toml:"token"`

	// ReadOnly refuses command execution over HTTP and WebSocket
	ReadOnly bool `toml:"read_only"`
}

// LogSettings defines debug log configuration
type LogSettings struct {
	// Debug enables file logging without TABDECK_DEBUG
	Debug bool `toml:"debug"`

	// DebugLevel sets the minimum log level: "debug", "info", "warn", "error"
	// Default: "info"
	DebugLevel string `toml:"debug_level"`

	// DebugFormat sets the log format: "json" (default) or "text"
	DebugFormat string `toml:"debug_format"`

	// DebugMaxMB is the max size in MB for debug.log before rotation
	// Default: 10
	DebugMaxMB int `toml:"debug_max_mb"`

	// DebugBackups is the number of rotated debug.log files to keep
	// Default: 5
	DebugBackups int `toml:"debug_backups"`

	// DebugRetentionDays is the number of days to keep rotated debug logs
	// Default: 10
	DebugRetentionDays int `toml:"debug_retention_days"`

	// DebugCompress enables gzip compression for rotated debug logs
	DebugCompress bool `toml:"debug_compress"`

	// RingBufferMB is the in-memory ring buffer size in MB for crash dumps
	// Default: 4
	RingBufferMB int `toml:"ring_buffer_mb"`

	// PprofEnabled starts a pprof server on localhost:6060 when debug mode is active
	PprofEnabled bool `toml:"pprof_enabled"`

	// AggregateIntervalS is the event aggregation flush interval in seconds
	// Default: 30
	AggregateIntervalS int `toml:"aggregate_interval_secs"`
}

var defaultUserConfig = UserConfig{}

// Cache for user config (loaded once per process)
var (
	userConfigCache   *UserConfig
	userConfigCacheMu sync.RWMutex
)

// Dir returns the tabdeck directory: $TABDECK_HOME or ~/.tabdeck.
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tabdeck"), nil
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, UserConfigFileName), nil
}

// LoadUserConfig loads the user configuration from TOML file
// Returns cached config after first load
func LoadUserConfig() (*UserConfig, error) {
	userConfigCacheMu.RLock()
	if userConfigCache != nil {
		defer userConfigCacheMu.RUnlock()
		return userConfigCache, nil
	}
	userConfigCacheMu.RUnlock()

	userConfigCacheMu.Lock()
	defer userConfigCacheMu.Unlock()

	if userConfigCache != nil {
		return userConfigCache, nil
	}

	configPath, err := GetUserConfigPath()
	if err != nil {
		userConfigCache = &defaultUserConfig
		return userConfigCache, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		userConfigCache = &defaultUserConfig
		return userConfigCache, nil
	}

	var config UserConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		// Cache the default so a broken file is reported once, not re-parsed
		userConfigCache = &defaultUserConfig
		return userConfigCache, fmt.Errorf("config.toml parse error: %w", err)
	}

	userConfigCache = &config
	return userConfigCache, nil
}

// ReloadUserConfig forces a reload of the user config
func ReloadUserConfig() (*UserConfig, error) {
	ClearUserConfigCache()
	return LoadUserConfig()
}

// ClearUserConfigCache drops the cached config; the next LoadUserConfig reads the file again
func ClearUserConfigCache() {
	userConfigCacheMu.Lock()
	userConfigCache = nil
	userConfigCacheMu.Unlock()
}

// SaveUserConfig writes the config to config.toml atomically and clears the cache
func SaveUserConfig(config *UserConfig) error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# tabdeck configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := writeFileAtomic(configPath, buf.Bytes()); err != nil {
		return err
	}
	ClearUserConfigCache()
	return nil
}

// writeFileAtomic writes to a temp file, fsyncs it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	// fsync failure is not fatal: the rename still replaces the file whole
	_ = f.Sync()
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize config save: %w", err)
	}
	return nil
}

// expandPath resolves a leading ~/ and makes relative paths relative to the tabdeck dir.
func expandPath(p, dir string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if !filepath.IsAbs(p) && dir != "" {
		return filepath.Join(dir, p)
	}
	return p
}

func loadOrDefault() *UserConfig {
	config, err := LoadUserConfig()
	if err != nil || config == nil {
		return &defaultUserConfig
	}
	return config
}

// GetSearchSettings returns search settings with defaults applied
func GetSearchSettings() SearchSettings {
	settings := loadOrDefault().Search
	scope, err := tabs.ParseScope(settings.DefaultScope)
	if err != nil {
		scope = tabs.ScopeCurrentWindow
	}
	settings.DefaultScope = string(scope)
	settings.DuplicateMode = string(urlutil.ParseDuplicateMode(settings.DuplicateMode))
	return settings
}

// GetCommandSettings returns command settings with defaults applied
func GetCommandSettings() CommandSettings {
	settings := loadOrDefault().Commands
	if settings.FreezeParallelism < 0 {
		settings.FreezeParallelism = 0
	}
	return settings
}

// GetSnapshotSettings returns snapshot settings with defaults applied
func GetSnapshotSettings() SnapshotSettings {
	settings := loadOrDefault().Snapshot
	dir, _ := Dir()
	if settings.Path == "" {
		settings.Path = "snapshot.json"
	}
	settings.Path = expandPath(settings.Path, dir)
	if settings.WatchRateLimit <= 0 {
		settings.WatchRateLimit = 4
	}
	return settings
}

// GetVaultSettings returns vault settings with defaults applied
func GetVaultSettings() VaultSettings {
	settings := loadOrDefault().Vault
	dir, _ := Dir()
	if settings.Path == "" {
		settings.Path = "vault.db"
	}
	settings.Path = expandPath(settings.Path, dir)
	return settings
}

// GetWebSettings returns web settings with defaults applied
func GetWebSettings() WebSettings {
	settings := loadOrDefault().Web
	if settings.ListenAddr == "" {
		settings.ListenAddr = "127.0.0.1:8787"
	}
	return settings
}

// GetLogSettings returns log settings with defaults applied
func GetLogSettings() LogSettings {
	settings := loadOrDefault().Logs
	if settings.DebugLevel == "" {
		settings.DebugLevel = "info"
	}
	if settings.DebugFormat == "" {
		settings.DebugFormat = "json"
	}
	if settings.DebugMaxMB <= 0 {
		settings.DebugMaxMB = 10
	}
	if settings.DebugBackups <= 0 {
		settings.DebugBackups = 5
	}
	if settings.DebugRetentionDays <= 0 {
		settings.DebugRetentionDays = 10
	}
	if settings.RingBufferMB <= 0 {
		settings.RingBufferMB = 4
	}
	if settings.AggregateIntervalS <= 0 {
		settings.AggregateIntervalS = 30
	}
	return settings
}

// LoggingConfig converts the log settings into a logging.Config. File
// logging is only enabled when debug is true.
func LoggingConfig(debug bool) logging.Config {
	s := GetLogSettings()
	cfg := logging.Config{
		Level:                 s.DebugLevel,
		Format:                s.DebugFormat,
		MaxSizeMB:             s.DebugMaxMB,
		MaxBackups:            s.DebugBackups,
		MaxAgeDays:            s.DebugRetentionDays,
		Compress:              s.DebugCompress,
		RingBufferSize:        s.RingBufferMB * 1024 * 1024,
		AggregateIntervalSecs: s.AggregateIntervalS,
		PprofEnabled:          s.PprofEnabled,
		Debug:                 debug || s.Debug,
	}
	if cfg.Debug {
		cfg.LogDir, _ = Dir()
	}
	return cfg
}
