// Package command executes the bulk actions requested by slash commands.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/asheshgoplani/tabdeck/internal/filter"
	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

var cmdLog = logging.ForComponent(logging.CompCommand)

// VaultWriter persists a tab outside the live session.
type VaultWriter interface {
	SaveTab(ctx context.Context, tab tabs.Tab, groupTitle string) (tabs.VaultItem, error)
}

// VaultRemover is implemented by writers that can take saved items back out.
// When the configured writer has it, save results carry an Undo hook.
type VaultRemover interface {
	RemoveItems(ctx context.Context, ids []string) error
}

// Result is the outcome of one command.
type Result struct {
	Command       query.CommandType `json:"command"`
	Success       bool              `json:"success"`
	AffectedCount int               `json:"affectedCount"`
	Error         string            `json:"error,omitempty"`
	// Undo reverses the command when the collaborator supports it.
	Undo func(ctx context.Context) error `json:"-"`
}

// CanUndo reports whether the result carries an undo hook.
func (r Result) CanUndo() bool {
	return r.Undo != nil
}

// Executor maps commands onto the action sink and the vault.
type Executor struct {
	Sink  tabs.ActionSink
	Vault VaultWriter
	// FreezeParallelism caps concurrent discard calls; zero means unbounded.
	FreezeParallelism int
}

func failed(cmd query.CommandType, format string, args ...any) Result {
	return Result{Command: cmd, Error: fmt.Sprintf(format, args...)}
}

// Execute runs a single command against targets. Commands without an
// implementation report "Unknown command".
func (e *Executor) Execute(ctx context.Context, cmd query.CommandType, targets []tabs.Tab, fctx *filter.Context) Result {
	var res Result
	switch cmd {
	case query.CommandDelete:
		res = e.delete(ctx, targets)
	case query.CommandFreeze:
		res = e.freeze(ctx, targets)
	case query.CommandSave:
		res = e.save(ctx, targets, fctx)
	default:
		res = failed(cmd, "Unknown command: %s", cmd)
	}
	cmdLog.Info("command_executed",
		slog.String("command", string(cmd)),
		slog.Bool("success", res.Success),
		slog.Int("targets", len(targets)),
		slog.Int("affected", res.AffectedCount),
		slog.String("error", res.Error))
	return res
}

// ExecuteSequentially runs commands in order against the same targets and
// stops at the first failure. Commands that already ran are not rolled back,
// so the returned slice can be shorter than cmds.
func (e *Executor) ExecuteSequentially(ctx context.Context, cmds []query.CommandType, targets []tabs.Tab, fctx *filter.Context) []Result {
	results := make([]Result, 0, len(cmds))
	for _, cmd := range cmds {
		res := e.Execute(ctx, cmd, targets, fctx)
		results = append(results, res)
		if !res.Success {
			if len(results) < len(cmds) {
				cmdLog.Warn("command_queue_aborted",
					slog.String("failed", string(cmd)),
					slog.Int("skipped", len(cmds)-len(results)))
			}
			break
		}
	}
	return results
}

// tabIDs returns the distinct usable ids of targets in order.
func tabIDs(targets []tabs.Tab) []int {
	seen := make(map[int]bool, len(targets))
	ids := make([]int, 0, len(targets))
	for _, t := range targets {
		if t.ID <= 0 || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
	}
	return ids
}

// delete closes every target in one call; the batch succeeds or fails as a whole.
func (e *Executor) delete(ctx context.Context, targets []tabs.Tab) Result {
	ids := tabIDs(targets)
	if len(ids) == 0 {
		return failed(query.CommandDelete, "no valid tab IDs")
	}
	if e.Sink == nil {
		return failed(query.CommandDelete, "no action sink configured")
	}
	if err := e.Sink.RemoveTabs(ctx, ids); err != nil {
		return failed(query.CommandDelete, "%v", err)
	}
	return Result{Command: query.CommandDelete, Success: true, AffectedCount: len(ids)}
}

// freeze discards every target in parallel and waits for all calls. It
// succeeds if any single discard did.
func (e *Executor) freeze(ctx context.Context, targets []tabs.Tab) Result {
	ids := tabIDs(targets)
	if len(ids) == 0 {
		return failed(query.CommandFreeze, "no valid tab IDs")
	}
	if e.Sink == nil {
		return failed(query.CommandFreeze, "no action sink configured")
	}

	errs := make([]error, len(ids))
	var g errgroup.Group
	if e.FreezeParallelism > 0 {
		g.SetLimit(e.FreezeParallelism)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := e.Sink.DiscardTab(ctx, id); err != nil {
				errs[i] = fmt.Errorf("tab %d: %w", id, err)
			}
			// never fail the group: every discard has to settle
			return nil
		})
	}
	_ = g.Wait()

	var msgs []string
	fulfilled := 0
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
			continue
		}
		fulfilled++
	}
	return Result{
		Command:       query.CommandFreeze,
		Success:       fulfilled > 0,
		AffectedCount: fulfilled,
		Error:         strings.Join(msgs, "; "),
	}
}

// save writes every target that is still present in the live snapshot to the
// vault. The first write error aborts the command.
func (e *Executor) save(ctx context.Context, targets []tabs.Tab, fctx *filter.Context) Result {
	if e.Vault == nil {
		return failed(query.CommandSave, "vault is not configured")
	}

	live := make(map[int]tabs.Tab)
	var groups map[int]tabs.Group
	if fctx != nil {
		for _, t := range fctx.Tabs {
			live[t.ID] = t
		}
		groups = fctx.Groups
	}

	var saved []string
	for _, target := range targets {
		tab, ok := live[target.ID]
		if !ok {
			continue
		}
		groupTitle := ""
		if g, ok := groups[tab.GroupID]; ok && tab.HasGroup() {
			groupTitle = g.Title
		}
		item, err := e.Vault.SaveTab(ctx, tab, groupTitle)
		if err != nil {
			res := failed(query.CommandSave, "%v", err)
			res.AffectedCount = len(saved)
			return res
		}
		saved = append(saved, item.ID)
	}

	res := Result{Command: query.CommandSave, Success: true, AffectedCount: len(saved)}
	if remover, ok := e.Vault.(VaultRemover); ok && len(saved) > 0 {
		res.Undo = func(ctx context.Context) error {
			return remover.RemoveItems(ctx, saved)
		}
	}
	return res
}
