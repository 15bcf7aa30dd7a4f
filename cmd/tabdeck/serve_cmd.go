package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/asheshgoplani/tabdeck/internal/config"
	"github.com/asheshgoplani/tabdeck/internal/snapshot"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
	"github.com/asheshgoplani/tabdeck/internal/web"
)

// buildServer parses serve flags and returns a ready-to-start server.
// The caller is responsible for Start and Shutdown.
func buildServer(a *app, args []string) (*web.Server, error) {
	defaults := config.GetWebSettings()

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listenAddr := fs.String("listen", defaults.ListenAddr, "Listen address for the API server")
	readOnly := fs.Bool("read-only", defaults.ReadOnly, "Refuse to run commands")
	token := fs.String("token", defaults.Token, "Bearer token for API/WS access")

	fs.Usage = func() {
		fmt.Println("Usage: tabdeck serve [options]")
		fmt.Println()
		fmt.Println("Serve the query engine over HTTP and WebSocket.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  tabdeck serve")
		fmt.Println("  tabdeck serve --listen 127.0.0.1:9000 --read-only")
	}

	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		return nil, fmt.Errorf("flag parsing: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return web.NewServer(web.Config{
		ListenAddr:   *listenAddr,
		ReadOnly:     *readOnly,
		Token:        strings.TrimSpace(*token),
		Engine:       a.engine,
		Options:      a.options,
		DefaultScope: tabs.Scope(a.search.DefaultScope),
		SnapshotPath: a.snapPath,
		WatchRate:    a.watchHz,
	}), nil
}

func handleServe(args []string) {
	a := openApp()
	defer a.Close()

	server, err := buildServer(a, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	fmt.Printf("Serving tab queries on http://%s (snapshot: %s)\n", server.Addr(), a.snapPath)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		cliLog.Info("shutdown_signal", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
			os.Exit(1)
		}
		<-errCh
	}
}

// handleWatch re-runs a query every time the snapshot changes and prints the
// fresh results until interrupted.
func handleWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Print each result set as JSON")
	scopeFlag := fs.String("scope", "", "Window scope: current-window or all-windows")
	fs.Usage = func() {
		fmt.Println("Usage: tabdeck watch [options] <query...>")
		fmt.Println()
		fmt.Println("Print matching tabs again whenever the browser snapshot changes.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	out := NewCLIOutput(*jsonOutput, false)

	a := openApp()
	defer a.Close()

	scope, err := a.scope(*scopeFlag)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}
	input := strings.Join(fs.Args(), " ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changed := make(chan struct{}, 1)
	w, err := snapshot.NewWatcher(a.snapPath, a.watchHz, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		out.Error(fmt.Sprintf("failed to watch snapshot: %v", err), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	defer w.Close()

	run := func() {
		opts, err := a.options(ctx, scope)
		if err != nil {
			out.Error(err.Error(), ErrCodeInvalidOperation)
			return
		}
		resp, err := a.engine.Search(ctx, input, opts)
		if err != nil {
			reportSearchError(out, err)
			return
		}
		if !*jsonOutput {
			fmt.Println(dimStyle.Render(time.Now().Format("15:04:05")))
		}
		out.Print(renderResults(resp.Results, terminalWidth()), resp)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			run()
		}
	}
}
