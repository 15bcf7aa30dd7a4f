package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/asheshgoplani/tabdeck/internal/command"
	"github.com/asheshgoplani/tabdeck/internal/config"
	"github.com/asheshgoplani/tabdeck/internal/engine"
	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/snapshot"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
	"github.com/asheshgoplani/tabdeck/internal/urlutil"
	"github.com/asheshgoplani/tabdeck/internal/vault"
)

var cliLog = logging.ForComponent(logging.CompCLI)

// app bundles the configured snapshot source, vault and engine for one CLI
// invocation.
type app struct {
	search   config.SearchSettings
	source   *snapshot.Source
	vault    *vault.Store
	engine   *engine.Engine
	watchHz  float64
	snapPath string
}

// openApp wires the engine from user config. A vault that cannot be opened
// is logged and left out: searches still work, !vault matches nothing and
// /save fails with a clear error.
func openApp() *app {
	search := config.GetSearchSettings()
	snap := config.GetSnapshotSettings()
	cmds := config.GetCommandSettings()

	a := &app{
		search:   search,
		source:   snapshot.NewSource(snap.Path, search.ExtensionPageURL),
		watchHz:  snap.WatchRateLimit,
		snapPath: snap.Path,
	}

	exec := &command.Executor{
		Sink:              a.source,
		FreezeParallelism: cmds.FreezeParallelism,
	}

	store, err := vault.Open(config.GetVaultSettings().Path)
	if err != nil {
		cliLog.Warn("vault_unavailable", slog.String("error", err.Error()))
	} else {
		a.vault = store
		exec.Vault = store
	}

	a.engine = &engine.Engine{
		Tabs:          a.source,
		Groups:        a.source,
		Executor:      exec,
		DuplicateMode: urlutil.ParseDuplicateMode(search.DuplicateMode),
		Collation:     collationFromEnv(),
	}
	return a
}

func (a *app) Close() {
	if a.vault != nil {
		_ = a.vault.Close()
	}
}

// scope resolves a --scope flag value, falling back to the configured default.
func (a *app) scope(flagValue string) (tabs.Scope, error) {
	if strings.TrimSpace(flagValue) == "" {
		return tabs.Scope(a.search.DefaultScope), nil
	}
	return tabs.ParseScope(flagValue)
}

// options builds per-search options; vault items are read fresh each time.
func (a *app) options(ctx context.Context, scope tabs.Scope) (engine.Options, error) {
	opts := engine.Options{
		Scope:         scope,
		LocalPatterns: a.search.LocalPatterns,
	}
	if a.vault == nil {
		return opts, nil
	}
	items, err := a.vault.List(ctx)
	if err != nil {
		return opts, fmt.Errorf("load vault items: %w", err)
	}
	opts.VaultItems = items
	return opts, nil
}

// collationFromEnv picks the sort locale from LC_ALL, LC_COLLATE or LANG.
func collationFromEnv() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_COLLATE", "LANG"} {
		if tag, ok := parseLocale(os.Getenv(key)); ok {
			return tag
		}
	}
	return language.Und
}

// parseLocale turns POSIX locale names like "de_DE.UTF-8@euro" into a tag.
func parseLocale(v string) (language.Tag, bool) {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	if v == "" || v == "C" || v == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(v, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
