package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/asheshgoplani/tabdeck/internal/clipboard"
	"github.com/asheshgoplani/tabdeck/internal/config"
	"github.com/asheshgoplani/tabdeck/internal/engine"
	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/snapshot"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	scopeFlag := fs.String("scope", "", "Window scope: current-window or all-windows")
	copyResults := fs.Bool("copy", false, "Copy the matching tabs to the clipboard")
	copyFormat := fs.String("copy-format", "url", "Clipboard format: url, markdown or title-url")

	fs.Usage = func() {
		fmt.Println("Usage: tabdeck search [options] <query...>")
		fmt.Println()
		fmt.Println("List tabs matching a query. Commands in the query are not run;")
		fmt.Println("use 'tabdeck exec' for that.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  tabdeck search youtube !audio")
		fmt.Println("  tabdeck search -!frozen sort:title --scope all")
		fmt.Println("  tabdeck search !gn work --json")
		fmt.Println("  tabdeck search !gn research --copy --copy-format markdown")
	}

	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	format, err := clipboard.ParseFormat(*copyFormat)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	scope, err := a.scope(*scopeFlag)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}

	ctx := context.Background()
	opts, err := a.options(ctx, scope)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidOperation)
		os.Exit(1)
	}

	input := strings.Join(fs.Args(), " ")
	resp, err := a.engine.Search(ctx, input, opts)
	if err != nil {
		reportSearchError(out, err)
		os.Exit(1)
	}

	if engine.HasCommands(resp.ParsedQuery) && !*jsonOutput {
		fmt.Fprintln(os.Stderr, dimStyle.Render("Commands were not run. Use 'tabdeck exec' to execute them."))
	}
	out.Print(renderResults(resp.Results, terminalWidth()), resp)

	if *copyResults {
		copyTabs(resp.Results, format, *jsonOutput)
	}
}

// copyTabs puts the result tabs on the clipboard and reports on stderr so
// JSON output stays clean.
func copyTabs(results []engine.Result, format clipboard.Format, quiet bool) {
	list := make([]tabs.Tab, 0, len(results))
	for _, r := range results {
		list = append(list, r.Tab)
	}
	text := clipboard.FormatTabs(list, format)
	if text == "" {
		fmt.Fprintln(os.Stderr, "Nothing to copy.")
		return
	}
	res, err := clipboard.Copy(text, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: copy failed: %v\n", err)
		os.Exit(1)
	}
	cliLog.Debug("results_copied", slog.String("method", res.Method), slog.Int("lines", res.LineCount))
	if !quiet {
		fmt.Fprintf(os.Stderr, "%s Copied %s via %s\n", successSymbol, pluralize(res.LineCount, "tab"), res.Method)
	}
}

func handleExec(args []string) {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	quiet := fs.Bool("quiet", false, "Only set the exit status")
	scopeFlag := fs.String("scope", "", "Window scope: current-window or all-windows")
	yes := fs.Bool("yes", false, "Skip confirmation for destructive commands")
	fs.BoolVar(yes, "y", false, "Skip confirmation (short)")

	fs.Usage = func() {
		fmt.Println("Usage: tabdeck exec [options] <query...>")
		fmt.Println()
		fmt.Println("Run the query's /commands on the matching tabs. When nothing matches,")
		fmt.Println("commands apply to every tab in scope.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  tabdeck exec !frozen /delete")
		fmt.Println("  tabdeck exec youtube /save /delete -y")
		fmt.Println("  tabdeck exec /freeze --scope all")
	}

	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, *quiet)

	input := strings.Join(fs.Args(), " ")
	parsed := query.Parse(input)
	if !engine.HasCommands(parsed) {
		out.Error("query has no /commands; use 'tabdeck search' to list tabs", ErrCodeInvalidArgs)
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	scope, err := a.scope(*scopeFlag)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}

	ctx := context.Background()
	opts, err := a.options(ctx, scope)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidOperation)
		os.Exit(1)
	}

	cmdSettings := config.GetCommandSettings()
	if hasDestructive(parsed) && cmdSettings.GetConfirmDestructive() && !*yes {
		n, err := previewTargets(ctx, a.engine, input, opts)
		if err != nil {
			reportSearchError(out, err)
			os.Exit(1)
		}
		if !confirm(fmt.Sprintf("Run %s on %s?", commandList(parsed), pluralize(n, "tab"))) {
			out.Error("cancelled (pass --yes to skip confirmation)", ErrCodeCancelled)
			os.Exit(1)
		}
	}

	resp, err := a.engine.SearchAndExecute(ctx, input, opts)
	if err != nil {
		reportSearchError(out, err)
		os.Exit(1)
	}

	out.Print(renderCommandResults(resp.CommandResults), resp)
	if failed := firstFailure(resp); failed != "" {
		if !*jsonOutput {
			out.Error(failed, ErrCodeCommandFailed)
		}
		os.Exit(1)
	}
}

func handleParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Println("Usage: tabdeck parse [--json] <query...>")
		fmt.Println()
		fmt.Println("Show how a query is parsed without touching any tabs.")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	parsed := query.Parse(strings.Join(fs.Args(), " "))
	out.Print(describeQuery(parsed), parsed)
}

func reportSearchError(out *CLIOutput, err error) {
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot):
		out.Error("no tab snapshot found; is the browser extension running?", ErrCodeNoSnapshot)
	default:
		out.Error(err.Error(), ErrCodeInvalidOperation)
	}
}

// previewTargets counts the tabs SearchAndExecute would act on, including
// the fall back to every tab in scope.
func previewTargets(ctx context.Context, e *engine.Engine, input string, opts engine.Options) (int, error) {
	resp, err := e.Search(ctx, input, opts)
	if err != nil {
		return 0, err
	}
	if n := len(resp.Results); n > 0 {
		return n, nil
	}
	fctx, err := e.BuildContext(ctx, opts)
	if err != nil {
		return 0, err
	}
	return len(fctx.Tabs), nil
}

func hasDestructive(q *query.ParsedQuery) bool {
	for _, c := range q.Commands {
		if def, ok := query.LookupCommand(string(c)); ok && def.Destructive {
			return true
		}
	}
	return false
}

func commandList(q *query.ParsedQuery) string {
	names := make([]string, 0, len(q.Commands))
	for _, c := range q.Commands {
		names = append(names, "/"+string(c))
	}
	return strings.Join(names, " ")
}

// firstFailure returns the error of the first failed command, if any.
func firstFailure(resp *engine.Response) string {
	for _, r := range resp.CommandResults {
		if !r.Success {
			return fmt.Sprintf("/%s failed: %s", r.Command, r.Error)
		}
	}
	return ""
}

// describeQuery renders a parsed query for humans.
func describeQuery(q *query.ParsedQuery) string {
	var b strings.Builder
	line := func(label string, values []string) {
		if len(values) == 0 {
			values = []string{dimStyle.Render("(none)")}
		}
		fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-9s", label)), strings.Join(values, ", "))
	}

	terms := make([]string, 0, len(q.TextTerms))
	for _, t := range q.TextTerms {
		terms = append(terms, fmt.Sprintf("%q", t))
	}
	line("Terms:", terms)

	bangs := make([]string, 0, len(q.Bangs))
	for _, bang := range q.Bangs {
		s := "!" + string(bang.Type)
		if bang.Negated {
			s = "-" + s
		}
		if bang.HasValue() {
			s += fmt.Sprintf(" %q", bang.Value)
		}
		bangs = append(bangs, s)
	}
	line("Bangs:", bangs)

	cmds := make([]string, 0, len(q.Commands))
	for _, c := range q.Commands {
		cmds = append(cmds, "/"+string(c))
	}
	line("Commands:", cmds)

	var sortKey []string
	if q.Sort != "" {
		sortKey = []string{string(q.Sort)}
	}
	line("Sort:", sortKey)
	return b.String()
}
