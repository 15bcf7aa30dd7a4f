package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/asheshgoplani/tabdeck/internal/command"
	"github.com/asheshgoplani/tabdeck/internal/engine"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

// Table column widths for result output
const (
	tableColID     = 8
	tableColWindow = 6
	tableColFlags  = 5
	minTitleWidth  = 16
	defaultWidth   = 100
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// terminalWidth returns the stdout width, or defaultWidth when stdout is not
// a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// fit truncates s to width display cells and pads it to exactly width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// tabFlags renders a compact state column: F frozen, A audible, P pinned,
// G grouped, * active.
func tabFlags(t tabs.Tab) string {
	var b strings.Builder
	mark := func(on bool, c byte) {
		if on {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	mark(t.Discarded, 'F')
	mark(t.Audible, 'A')
	mark(t.Pinned, 'P')
	mark(t.HasGroup(), 'G')
	mark(t.Active, '*')
	return b.String()
}

// renderResults formats search results as a table sized to width.
func renderResults(results []engine.Result, width int) string {
	if len(results) == 0 {
		return dimStyle.Render("No matching tabs.") + "\n"
	}

	// ID WIN FLAGS TITLE URL, single spaces between columns
	rest := width - tableColID - tableColWindow - tableColFlags - 4
	titleW := rest * 2 / 5
	if titleW < minTitleWidth {
		titleW = minTitleWidth
	}
	urlW := rest - titleW
	if urlW < minTitleWidth {
		urlW = minTitleWidth
	}

	var b strings.Builder
	header := fmt.Sprintf("%s %s %s %s %s",
		fit("ID", tableColID), fit("WIN", tableColWindow), fit("FLAGS", tableColFlags),
		fit("TITLE", titleW), "URL")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	for _, r := range results {
		t := r.Tab
		fmt.Fprintf(&b, "%s %s %s %s %s\n",
			fit(fmt.Sprint(t.ID), tableColID),
			fit(fmt.Sprint(t.WindowID), tableColWindow),
			flagStyle.Render(tabFlags(t)),
			fit(t.Title, titleW),
			dimStyle.Render(strings.TrimRight(fit(t.URL, urlW), " ")),
		)
	}
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render("Total: "+pluralize(len(results), "tab")))
	return b.String()
}

// renderCommandResults prints one line per executed command.
func renderCommandResults(results []command.Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(&b, "%s /%s: %s\n", okStyle.Render(successSymbol), r.Command, pluralize(r.AffectedCount, "tab"))
			continue
		}
		fmt.Fprintf(&b, "%s /%s: %s\n", failStyle.Render(errorSymbol), r.Command, r.Error)
	}
	return b.String()
}

// renderVaultItems formats vault entries, newest first.
func renderVaultItems(items []tabs.VaultItem, width int) string {
	if len(items) == 0 {
		return dimStyle.Render("Vault is empty.") + "\n"
	}
	const idW, savedW = 36, 16
	titleW := (width - idW - savedW - 3) / 2
	if titleW < minTitleWidth {
		titleW = minTitleWidth
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s %s %s", fit("ID", idW), fit("SAVED", savedW), fit("TITLE", titleW), "URL")))
	b.WriteString("\n")
	for _, it := range items {
		title := it.Title
		if it.GroupTitle != "" {
			title = "[" + it.GroupTitle + "] " + title
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			fit(it.ID, idW),
			fit(it.SavedAt.Local().Format("2006-01-02 15:04"), savedW),
			fit(title, titleW),
			dimStyle.Render(it.URL),
		)
	}
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render("Total: "+pluralize(len(items), "item")))
	return b.String()
}
