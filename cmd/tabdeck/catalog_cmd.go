package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/asheshgoplani/tabdeck/internal/query"
)

func handleCatalog(args []string) {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Println("Usage: tabdeck catalog [--json]")
		fmt.Println()
		fmt.Println("List every bang, command and sort key the query language accepts.")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	payload := map[string]any{
		"bangs":    query.BangDefinitions(),
		"commands": query.CommandDefinitions(),
		"sortKeys": query.SortKeys(),
	}
	out.Print(renderCatalog(), payload)
}

func renderCatalog() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Bangs") + "\n")
	for _, def := range query.BangDefinitions() {
		name := "!" + string(def.Type)
		if def.Kind.TakesValue() {
			name += " <value>"
		}
		fmt.Fprintf(&b, "  %s %-18s %-5s %s\n", bulletSymbol, name, "!"+def.Short, def.Description)
	}
	b.WriteString(dimStyle.Render("  Prefix any bang with - to negate it, e.g. -!frozen") + "\n\n")

	b.WriteString(headerStyle.Render("Commands") + "\n")
	for _, def := range query.CommandDefinitions() {
		desc := def.Description
		if !def.Implemented {
			desc += dimStyle.Render(" (not implemented)")
		}
		fmt.Fprintf(&b, "  %s %-18s %-5s %s\n", bulletSymbol, "/"+string(def.Type), "/"+def.Short, desc)
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Sort") + "\n")
	keys := make([]string, 0, 3)
	for _, k := range query.SortKeys() {
		keys = append(keys, "sort:"+string(k))
	}
	fmt.Fprintf(&b, "  %s %s\n", bulletSymbol, strings.Join(keys, "  "))
	return b.String()
}

func handleSuggest(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Println("Usage: tabdeck suggest [--json] <partial query>")
		fmt.Println()
		fmt.Println("Complete the last word of a query against the bang and command catalog.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  tabdeck suggest '!fro'")
		fmt.Println("  tabdeck suggest 'youtube /de'")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	suggestions := query.Suggest(strings.Join(fs.Args(), " "))
	var b strings.Builder
	for _, s := range suggestions {
		fmt.Fprintf(&b, "%-16s %s\n", s.Insert, dimStyle.Render(s.Description))
	}
	out.Print(b.String(), map[string]any{"suggestions": suggestions})
}
