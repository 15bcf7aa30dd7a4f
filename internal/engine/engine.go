// Package engine composes parsing, filtering, sorting and command execution
// into a single search call over a fresh tab snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/asheshgoplani/tabdeck/internal/command"
	"github.com/asheshgoplani/tabdeck/internal/filter"
	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
	"github.com/asheshgoplani/tabdeck/internal/urlutil"
)

var engineLog = logging.ForComponent(logging.CompEngine)

// ErrNoExecutor is returned by SearchAndExecute when the query carries
// commands but the engine has nothing to run them with.
var ErrNoExecutor = errors.New("engine: no command executor configured")

// Engine runs queries against the tabs reported by its sources.
type Engine struct {
	Tabs          tabs.TabSource
	Groups        tabs.GroupSource
	Executor      *command.Executor
	DuplicateMode urlutil.DuplicateMode
	// Collation selects the locale for title and URL sorting. The zero tag
	// collates with the root locale.
	Collation language.Tag
}

// Options are the per-call inputs of a search.
type Options struct {
	Scope         tabs.Scope
	VaultItems    []tabs.VaultItem
	LocalPatterns []string
}

// Result is a matched tab. MatchScore is always 1: results are not ranked.
type Result struct {
	Tab        tabs.Tab `json:"tab"`
	MatchScore int      `json:"matchScore"`
}

// Response is what Search and SearchAndExecute return.
type Response struct {
	Results     []Result           `json:"results"`
	ParsedQuery *query.ParsedQuery `json:"parsedQuery"`
	// CommandResults is nil when no command ran.
	CommandResults []command.Result `json:"commandResults,omitempty"`
}

// IsSearchActive reports whether q has anything to search or run.
func IsSearchActive(q *query.ParsedQuery) bool {
	return q != nil && !q.IsEmpty()
}

// HasCommands reports whether q requests any command.
func HasCommands(q *query.ParsedQuery) bool {
	return q != nil && len(q.Commands) > 0
}

// ResultCount is the number of results in resp.
func ResultCount(resp *Response) int {
	if resp == nil {
		return 0
	}
	return len(resp.Results)
}

// snapshot fetches tabs and groups for scope concurrently.
func (e *Engine) snapshot(ctx context.Context, scope tabs.Scope) ([]tabs.Tab, []tabs.Group, error) {
	var all []tabs.Tab
	var groups []tabs.Group

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if all, err = e.Tabs.QueryTabs(gctx, scope); err != nil {
			return fmt.Errorf("engine: query tabs: %w", err)
		}
		return nil
	})
	if e.Groups != nil {
		g.Go(func() error {
			var err error
			if groups, err = e.Groups.QueryGroups(gctx, scope); err != nil {
				return fmt.Errorf("engine: query groups: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return all, groups, nil
}

// BuildContext takes a fresh snapshot and indexes it for filtering.
func (e *Engine) BuildContext(ctx context.Context, opts Options) (*filter.Context, error) {
	if e.Tabs == nil {
		return nil, errors.New("engine: no tab source configured")
	}
	scope := opts.Scope
	if scope == "" {
		scope = tabs.ScopeCurrentWindow
	}
	all, groups, err := e.snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	mode := e.DuplicateMode
	if mode == "" {
		mode = urlutil.DuplicateLoose
	}
	return filter.NewContext(all, groups, opts.VaultItems, scope, mode, opts.LocalPatterns), nil
}

// splitScopeBangs pulls the title and url bangs out of bangs. Only the
// presence of a non-negated one narrows text matching; its value is not
// consulted.
func splitScopeBangs(bangs []query.BangFilter) (filter.TextScope, []query.BangFilter) {
	var title, url bool
	rest := make([]query.BangFilter, 0, len(bangs))
	for _, b := range bangs {
		switch b.Type {
		case query.BangTitle:
			title = title || !b.Negated
		case query.BangURL:
			url = url || !b.Negated
		default:
			rest = append(rest, b)
		}
	}
	switch {
	case title && !url:
		return filter.ScopeTitle, rest
	case url && !title:
		return filter.ScopeURL, rest
	default:
		return filter.ScopeBoth, rest
	}
}

// Search parses input and returns the matching tabs, sorted. A query without
// terms or bangs returns an empty response without consulting the tab
// sources.
func (e *Engine) Search(ctx context.Context, input string, opts Options) (*Response, error) {
	parsed := query.Parse(input)
	resp := &Response{Results: []Result{}, ParsedQuery: parsed}
	if !IsSearchActive(parsed) {
		return resp, nil
	}
	// Commands alone select nothing; SearchAndExecute widens them to the
	// whole scope.
	if len(parsed.TextTerms) == 0 && len(parsed.Bangs) == 0 {
		return resp, nil
	}

	start := time.Now()
	fctx, err := e.BuildContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	scope, bangs := splitScopeBangs(parsed.Bangs)
	for _, tab := range fctx.Tabs {
		if !filter.ApplyTextSearch(tab, parsed.TextTerms, scope) {
			continue
		}
		if !filter.ApplyAllFilters(tab, bangs, fctx) {
			continue
		}
		resp.Results = append(resp.Results, Result{Tab: tab, MatchScore: 1})
	}
	resp.Results = e.SortResults(resp.Results, parsed.Sort)

	engineLog.Debug("search_done",
		slog.String("query", parsed.Raw),
		slog.Int("candidates", len(fctx.Tabs)),
		slog.Int("results", len(resp.Results)),
		slog.Duration("elapsed", time.Since(start)))
	logging.Aggregate(logging.CompEngine, "search_executed", slog.String("scope", string(fctx.Scope)))
	return resp, nil
}

// SearchAndExecute searches and then runs the query's commands against the
// results using a second, fresh snapshot. When the search matched nothing the
// commands run against every tab in scope instead.
func (e *Engine) SearchAndExecute(ctx context.Context, input string, opts Options) (*Response, error) {
	resp, err := e.Search(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	if !HasCommands(resp.ParsedQuery) {
		return resp, nil
	}
	if e.Executor == nil {
		return nil, ErrNoExecutor
	}

	fctx, err := e.BuildContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	targets := make([]tabs.Tab, 0, len(resp.Results))
	for _, r := range resp.Results {
		targets = append(targets, r.Tab)
	}
	if len(targets) == 0 {
		targets = fctx.Tabs
		engineLog.Info("commands_broadened_to_scope",
			slog.String("query", resp.ParsedQuery.Raw),
			slog.String("scope", string(fctx.Scope)),
			slog.Int("targets", len(targets)))
	}

	resp.CommandResults = e.Executor.ExecuteSequentially(ctx, resp.ParsedQuery.Commands, targets, fctx)
	return resp, nil
}
