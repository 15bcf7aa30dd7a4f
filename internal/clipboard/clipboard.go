// Package clipboard copies text to the system clipboard, falling back to the
// OSC 52 terminal escape when no native tool is available.
package clipboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/asheshgoplani/tabdeck/internal/platform"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

// ErrNoMethod is returned when neither a native tool nor OSC 52 can be used.
var ErrNoMethod = errors.New("no clipboard method available (install pbcopy, xclip, xsel or wl-copy)")

// CopyResult contains metadata about a successful copy.
type CopyResult struct {
	Method    string `json:"method"` // pbcopy, xclip, osc52, ...
	ByteSize  int    `json:"bytes"`
	LineCount int    `json:"lines"`
}

// Format selects how tabs are rendered for copying.
type Format string

const (
	FormatURL      Format = "url"
	FormatMarkdown Format = "markdown"
	FormatTitleURL Format = "title-url"
)

// ParseFormat maps a flag value to a Format. Unknown values are an error.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "url", "urls":
		return FormatURL, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "title-url", "title":
		return FormatTitleURL, nil
	}
	return "", fmt.Errorf("unknown copy format %q (want url, markdown or title-url)", s)
}

// FormatTabs renders one line per tab.
func FormatTabs(list []tabs.Tab, format Format) string {
	var b strings.Builder
	for _, t := range list {
		switch format {
		case FormatMarkdown:
			fmt.Fprintf(&b, "- [%s](%s)\n", escapeMarkdown(t.Title), t.URL)
		case FormatTitleURL:
			fmt.Fprintf(&b, "%s\t%s\n", t.Title, t.URL)
		default:
			b.WriteString(t.URL)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Copy copies text to the system clipboard. The fallback chain is: native
// clipboard tool, then OSC 52 when allowOSC52 is set (stdout is a terminal).
func Copy(text string, allowOSC52 bool) (*CopyResult, error) {
	if text == "" {
		return nil, fmt.Errorf("no content to copy")
	}

	res := &CopyResult{ByteSize: len(text), LineCount: countLines(text)}

	method, err := copyNative(text)
	if err == nil {
		res.Method = method
		return res, nil
	}

	if allowOSC52 {
		if err := copyOSC52(text); err != nil {
			return nil, fmt.Errorf("OSC 52 clipboard failed: %w", err)
		}
		res.Method = "osc52"
		return res, nil
	}
	return nil, ErrNoMethod
}

func copyNative(text string) (string, error) {
	switch p := platform.Detect(); p {
	case platform.PlatformMacOS:
		return "pbcopy", runClipCmd("pbcopy", nil, text)

	case platform.PlatformWSL:
		return "clip.exe", runClipCmd("clip.exe", nil, text)

	case platform.PlatformLinux:
		// Wayland takes priority over X11
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			if path, err := exec.LookPath("wl-copy"); err == nil {
				return "wl-copy", runClipCmd(path, nil, text)
			}
		}
		if path, err := exec.LookPath("xclip"); err == nil {
			return "xclip", runClipCmd(path, []string{"-selection", "clipboard"}, text)
		}
		if path, err := exec.LookPath("xsel"); err == nil {
			return "xsel", runClipCmd(path, []string{"--clipboard", "--input"}, text)
		}
		return "", fmt.Errorf("no clipboard command found on Linux")

	default:
		return "", fmt.Errorf("unsupported platform: %s", p)
	}
}

func runClipCmd(name string, args []string, text string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// copyOSC52 writes the escape to /dev/tty so stdout redirection does not
// swallow it.
func copyOSC52(text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	seq := generateOSC52(encoded, os.Getenv("TMUX") != "")

	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	defer tty.Close()

	_, err = tty.WriteString(seq)
	return err
}

// generateOSC52 builds the escape sequence, wrapped in a DCS passthrough
// inside tmux.
func generateOSC52(base64Content string, inTmux bool) string {
	osc := "\x1b]52;c;" + base64Content + "\x07"
	if inTmux {
		return "\x1bPtmux;\x1b" + osc + "\x1b\\"
	}
	return osc
}

// countLines counts lines; a trailing newline does not add one.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
