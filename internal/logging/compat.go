package logging

import (
	"bytes"
	"log/slog"
	"strings"
)

// BridgeWriter is an io.Writer for the standard library log package. Lines of
// the form "[category] message" are logged with category as the component.
type BridgeWriter struct {
	component string
}

// NewBridgeWriter returns a writer whose untagged lines use defaultComponent.
func NewBridgeWriter(defaultComponent string) *BridgeWriter {
	return &BridgeWriter{component: defaultComponent}
}

func (bw *BridgeWriter) Write(p []byte) (int, error) {
	msg := string(bytes.TrimSpace(p))
	if msg == "" {
		return len(p), nil
	}
	msg = stripLogTimestamp(msg)

	component := bw.component
	if strings.HasPrefix(msg, "[") {
		if end := strings.Index(msg, "] "); end > 0 {
			component = canonicalComponent(strings.ToLower(msg[1:end]))
			msg = msg[end+2:]
		}
	}
	Logger().Info(msg, slog.String("component", component))
	return len(p), nil
}

// stripLogTimestamp drops the "15:04:05" or "15:04:05.000000" prefix the log
// package adds; slog records carry their own time.
func stripLogTimestamp(s string) string {
	if len(s) > 16 && s[2] == ':' && s[5] == ':' && s[8] == '.' && s[15] == ' ' {
		return s[16:]
	}
	if len(s) > 9 && s[2] == ':' && s[5] == ':' && s[8] == ' ' {
		return s[9:]
	}
	return s
}

func canonicalComponent(cat string) string {
	switch cat {
	case "query", "parse", "parser", "tokenizer":
		return CompQuery
	case "engine", "search":
		return CompEngine
	case "command", "cmd", "exec":
		return CompCommand
	case "vault", "sqlite":
		return CompVault
	case "snapshot", "watch", "watcher":
		return CompSnapshot
	case "http", "ws", "websocket", "web":
		return CompWeb
	default:
		return cat
	}
}
