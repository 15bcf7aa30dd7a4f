package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/asheshgoplani/tabdeck/internal/config"
	"github.com/asheshgoplani/tabdeck/internal/vault"
)

func handleVault(args []string) {
	if len(args) == 0 {
		printVaultHelp()
		return
	}

	switch args[0] {
	case "list", "ls":
		handleVaultList(args[1:])
	case "remove", "rm":
		handleVaultRemove(args[1:])
	case "export":
		handleVaultTransfer("export", args[1:])
	case "import":
		handleVaultTransfer("import", args[1:])
	case "help", "--help", "-h":
		printVaultHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown vault command: %s\n", args[0])
		printVaultHelp()
		os.Exit(1)
	}
}

func printVaultHelp() {
	fmt.Println("Usage: tabdeck vault <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list, ls             List saved tabs, newest first")
	fmt.Println("  remove, rm <id...>   Remove saved tabs by ID")
	fmt.Println("  export <file>        Write the vault to a JSON file")
	fmt.Println("  import <file>        Add tabs from a JSON file")
}

func openVault(out *CLIOutput) *vault.Store {
	store, err := vault.Open(config.GetVaultSettings().Path)
	if err != nil {
		out.Error(fmt.Sprintf("failed to open vault: %v", err), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	return store
}

func handleVaultList(args []string) {
	fs := flag.NewFlagSet("vault list", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	store := openVault(out)
	defer store.Close()

	items, err := store.List(context.Background())
	if err != nil {
		out.Error(fmt.Sprintf("failed to list vault: %v", err), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	out.Print(renderVaultItems(items, terminalWidth()), items)
}

func handleVaultRemove(args []string) {
	fs := flag.NewFlagSet("vault remove", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	quiet := fs.Bool("quiet", false, "Suppress output")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, *quiet)

	ids := fs.Args()
	if len(ids) == 0 {
		out.Error("at least one vault item ID is required", ErrCodeInvalidArgs)
		os.Exit(1)
	}

	store := openVault(out)
	defer store.Close()

	ctx := context.Background()
	for _, id := range ids {
		if _, err := store.Get(ctx, id); errors.Is(err, vault.ErrNotFound) {
			out.Error(fmt.Sprintf("vault item not found: %s", id), ErrCodeNotFound)
			os.Exit(1)
		}
	}
	if err := store.RemoveItems(ctx, ids); err != nil {
		out.Error(fmt.Sprintf("failed to remove: %v", err), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	out.Success(fmt.Sprintf("Removed %s from the vault", pluralize(len(ids), "item")), map[string]any{
		"success": true,
		"removed": ids,
	})
}

func handleVaultTransfer(direction string, args []string) {
	fs := flag.NewFlagSet("vault "+direction, flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	if fs.NArg() != 1 {
		out.Error(fmt.Sprintf("usage: tabdeck vault %s <file>", direction), ErrCodeInvalidArgs)
		os.Exit(1)
	}
	path := fs.Arg(0)

	store := openVault(out)
	defer store.Close()

	var (
		n   int
		err error
	)
	ctx := context.Background()
	if direction == "export" {
		n, err = store.Export(ctx, path)
	} else {
		n, err = store.Import(ctx, path)
	}
	if err != nil {
		out.Error(fmt.Sprintf("%s failed: %v", direction, err), ErrCodeInvalidOperation)
		os.Exit(1)
	}

	verb := "Exported"
	if direction == "import" {
		verb = "Imported"
	}
	out.Success(fmt.Sprintf("%s %s (%s)", verb, pluralize(n, "item"), path), map[string]any{
		"success": true,
		"count":   n,
		"path":    path,
	})
}
