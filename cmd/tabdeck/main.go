package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asheshgoplani/tabdeck/internal/config"
	"github.com/asheshgoplani/tabdeck/internal/logging"
)

const Version = "0.3.0"

// DebugEnv enables file logging for a single invocation.
const DebugEnv = "TABDECK_DEBUG"

func init() {
	initColorProfile()
}

// initColorProfile configures the lipgloss color profile. TABDECK_COLOR
// overrides detection: truecolor, 256, 16, none.
func initColorProfile() {
	if colorEnv := os.Getenv("TABDECK_COLOR"); colorEnv != "" {
		switch strings.ToLower(colorEnv) {
		case "truecolor", "true", "24bit":
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		case "256", "ansi256":
			lipgloss.SetColorProfile(termenv.ANSI256)
			return
		case "16", "ansi", "basic":
			lipgloss.SetColorProfile(termenv.ANSI)
			return
		case "none", "off", "ascii":
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	// Otherwise lipgloss detects the profile from the output itself, which
	// also turns colors off when piping.
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("tabdeck v%s\n", Version)
		return
	case "help", "--help", "-h":
		printHelp()
		return
	}

	shutdown := initLogging()
	defer shutdown()

	switch args[0] {
	case "search", "s":
		handleSearch(args[1:])
	case "exec", "x":
		handleExec(args[1:])
	case "parse":
		handleParse(args[1:])
	case "catalog":
		handleCatalog(args[1:])
	case "suggest":
		handleSuggest(args[1:])
	case "watch":
		handleWatch(args[1:])
	case "serve":
		handleServe(args[1:])
	case "vault":
		handleVault(args[1:])
	case "config":
		handleConfig(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printHelp()
		os.Exit(1)
	}
}

// initLogging sets up structured logging (JSONL with rotation) from the
// [logs] config. File logging is on when TABDECK_DEBUG is set or
// logs.debug = true; otherwise records are discarded.
func initLogging() func() {
	debugMode := os.Getenv(DebugEnv) != ""
	logCfg := config.LoggingConfig(debugMode)
	logging.Init(logCfg)

	// Route stray stdlib log output through slog.
	log.SetFlags(0)
	log.SetOutput(logging.NewBridgeWriter(logging.CompCLI))

	if logCfg.Debug {
		logging.ForComponent(logging.CompCLI).Info("cli_started",
			slog.Int("pid", os.Getpid()),
			slog.String("version", Version),
			slog.String("command", strings.Join(os.Args[1:], " ")))

		// SIGUSR1 dumps the ring buffer for post-mortem debugging
		usr1Chan := make(chan os.Signal, 1)
		signal.Notify(usr1Chan, syscall.SIGUSR1)
		go func() {
			for range usr1Chan {
				dumpPath := filepath.Join(logCfg.LogDir, fmt.Sprintf("crash-dump-%d.jsonl", time.Now().Unix()))
				if err := logging.DumpRingBuffer(dumpPath); err != nil {
					cliLog.Error("crash_dump_failed", slog.String("error", err.Error()))
				} else {
					cliLog.Info("crash_dump_written", slog.String("path", dumpPath))
				}
			}
		}()
	}
	return logging.Shutdown
}

func printHelp() {
	fmt.Printf("tabdeck v%s\n", Version)
	fmt.Println("Search and act on browser tabs with a small query language")
	fmt.Println()
	fmt.Println("Usage: tabdeck <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  search, s <query>   List tabs matching a query")
	fmt.Println("  exec, x <query>     Run a query's /commands on the matching tabs")
	fmt.Println("  parse <query>       Show how a query is parsed")
	fmt.Println("  catalog             List bangs, commands and sort keys")
	fmt.Println("  suggest <partial>   Complete a bang or command name")
	fmt.Println("  watch <query>       Re-run a query whenever tabs change")
	fmt.Println("  serve               Serve the engine over HTTP and WebSocket")
	fmt.Println("  vault               Manage saved tabs")
	fmt.Println("  config              Manage config.toml")
	fmt.Println("  version             Show version")
	fmt.Println("  help                Show this help")
	fmt.Println()
	fmt.Println("Query syntax:")
	fmt.Println("  words               Match title or URL (all words must match)")
	fmt.Println("  !bang, -!bang       Keep or drop tabs by state, e.g. !audio -!pin")
	fmt.Println("  !gn <name>          Bangs with a value read the words that follow")
	fmt.Println("  /command            Act on the results, e.g. /delete /save /freeze")
	fmt.Println("  sort:title          Order by index, title or url")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  tabdeck search youtube !audio")
	fmt.Println("  tabdeck search !duplicate --scope all --json")
	fmt.Println("  tabdeck exec !frozen /save /delete")
	fmt.Println("  tabdeck serve --read-only")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  TABDECK_HOME     Config and data directory (default: ~/.tabdeck)")
	fmt.Println("  TABDECK_DEBUG    Write debug logs to $TABDECK_HOME/debug.log")
	fmt.Println("  TABDECK_COLOR    Color mode: truecolor, 256, 16, none")
}
