package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/asheshgoplani/tabdeck/internal/config"
)

func handleConfig(args []string) {
	if len(args) == 0 {
		printConfigHelp()
		return
	}

	switch args[0] {
	case "init":
		handleConfigInit(args[1:])
	case "path":
		path, err := config.GetUserConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
	case "show":
		handleConfigShow(args[1:])
	case "help", "--help", "-h":
		printConfigHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		printConfigHelp()
		os.Exit(1)
	}
}

func printConfigHelp() {
	fmt.Println("Usage: tabdeck config <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init     Write an example config.toml if none exists")
	fmt.Println("  path     Print the config file location")
	fmt.Println("  show     Print the effective settings")
}

func handleConfigInit(args []string) {
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	path, _ := config.GetUserConfigPath()
	created, err := config.CreateExampleConfig()
	if err != nil {
		out.Error(fmt.Sprintf("failed to write config: %v", err), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	msg := "Config already exists: " + path
	if created {
		msg = "Created " + path
	}
	out.Success(msg, map[string]any{
		"success": true,
		"created": created,
		"path":    path,
	})
}

// handleConfigShow prints settings after defaults are applied.
func handleConfigShow(args []string) {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	search := config.GetSearchSettings()
	cmds := config.GetCommandSettings()
	snap := config.GetSnapshotSettings()
	web := config.GetWebSettings()
	effective := map[string]any{
		"search":   search,
		"commands": map[string]any{"freeze_parallelism": cmds.FreezeParallelism, "confirm_destructive": cmds.GetConfirmDestructive()},
		"snapshot": snap,
		"vault":    config.GetVaultSettings(),
		"web":      map[string]any{"listen_addr": web.ListenAddr, "read_only": web.ReadOnly, "token_set": web.Token != ""},
	}

	human := fmt.Sprintf(
		"default scope:       %s\nduplicate mode:      %s\nconfirm destructive: %t\nfreeze parallelism:  %d\nsnapshot:            %s\nvault:               %s\nlisten:              %s\n",
		search.DefaultScope, search.DuplicateMode, cmds.GetConfirmDestructive(), cmds.FreezeParallelism,
		snap.Path, config.GetVaultSettings().Path, web.ListenAddr,
	)
	out.Print(human, effective)
}
