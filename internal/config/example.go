package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const exampleConfig = `# tabdeck configuration
# Every key is optional. Values shown are the defaults.

[search]
# Windows searched when no --scope is given: "current-window" or "all-windows"
# default_scope = "current-window"

# Extra URL substrings that !local treats as local
# local_patterns = [".internal", ".corp"]

# How !duplicate compares URLs:
#   "loose"  ignores case, query string, fragment and trailing slash
#   "strict" keeps path case and query string
# duplicate_mode = "loose"

# Prefix of the extension's own page; tabs showing it never match
# extension_page_url = "chrome-extension://<id>/popup.html"

[commands]
# Maximum concurrent discards for /freeze (0 = unbounded)
# freeze_parallelism = 0

# Ask before /delete when running from the CLI
# confirm_destructive = true

[snapshot]
# Tab snapshot written by the browser extension (relative to this directory)
# path = "snapshot.json"
# Maximum change notifications per second for watch and serve
# watch_rate_limit = 4

[vault]
# path = "vault.db"

[web]
# listen_addr = "127.0.0.1:8787"
# Require ?token= or "Authorization: Bearer <token>"
# token = ""
# Refuse /commands over HTTP and WebSocket
# read_only = false

[logs]
# Write ~/.tabdeck/debug.log (same as TABDECK_DEBUG=1)
# debug = false
# debug_level = "info"
# debug_format = "json"
# debug_max_mb = 10
# debug_backups = 5
# debug_retention_days = 10
# debug_compress = false
# ring_buffer_mb = 4
# pprof_enabled = false
# aggregate_interval_secs = 30
`

// CreateExampleConfig writes a commented example config if none exists.
// It reports whether a file was created.
func CreateExampleConfig() (bool, error) {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeFileAtomic(configPath, []byte(exampleConfig)); err != nil {
		return false, err
	}
	return true, nil
}
