package clipboard

import (
	"encoding/base64"
	"testing"

	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

func TestCopy_EmptyContent(t *testing.T) {
	_, err := Copy("", false)
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if err.Error() != "no content to copy" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCopy_ReportsSize(t *testing.T) {
	result, err := Copy("https://a.test\nhttps://b.test\n", false)
	if err != nil {
		t.Skipf("clipboard not available: %v", err)
	}
	if result.ByteSize != 30 || result.LineCount != 2 || result.Method == "" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"a\nb\nc\n", 3},
		{"a\nb\nc", 3},
		{"\n\n\n", 3},
	}
	for _, tt := range tests {
		if got := countLines(tt.in); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGenerateOSC52(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))

	if got, want := generateOSC52(encoded, false), "\x1b]52;c;"+encoded+"\x07"; got != want {
		t.Errorf("plain: expected %q, got %q", want, got)
	}
	if got, want := generateOSC52(encoded, true), "\x1bPtmux;\x1b\x1b]52;c;"+encoded+"\x07\x1b\\"; got != want {
		t.Errorf("tmux: expected %q, got %q", want, got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatURL, false},
		{"URLs", FormatURL, false},
		{"md", FormatMarkdown, false},
		{"title", FormatTitleURL, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatTabs(t *testing.T) {
	list := []tabs.Tab{
		{Title: "Go [docs]", URL: "https://go.dev/doc"},
		{Title: "YouTube", URL: "https://youtube.com"},
	}

	if got, want := FormatTabs(list, FormatURL), "https://go.dev/doc\nhttps://youtube.com\n"; got != want {
		t.Errorf("url format = %q, want %q", got, want)
	}
	if got, want := FormatTabs(list, FormatMarkdown), "- [Go \\[docs\\]](https://go.dev/doc)\n- [YouTube](https://youtube.com)\n"; got != want {
		t.Errorf("markdown format = %q, want %q", got, want)
	}
	if got, want := FormatTabs(list[1:], FormatTitleURL), "YouTube\thttps://youtube.com\n"; got != want {
		t.Errorf("title-url format = %q, want %q", got, want)
	}
	if FormatTabs(nil, FormatURL) != "" {
		t.Error("no tabs should format to empty text")
	}
}
