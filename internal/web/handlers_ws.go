package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsClientMessage struct {
	Type    string `json:"type"` // query, execute, ping
	Query   string `json:"query,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Request int    `json:"request,omitempty"`
}

type wsServerMessage struct {
	Type     string          `json:"type"` // status, results, error
	Event    string          `json:"event,omitempty"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
	Request  int             `json:"request,omitempty"`
	Pushed   bool            `json:"pushed,omitempty"`
	Search   *searchResponse `json:"search,omitempty"`
	ReadOnly bool            `json:"readOnly,omitempty"`
	Time     time.Time       `json:"time"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     allowWSOrigin,
}

// allowWSOrigin accepts same-host pages, extension pages and clients that
// send no Origin at all.
func allowWSOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch originURL.Scheme {
	case "chrome-extension", "moz-extension":
		return true
	}
	if originURL.Host == "" {
		return false
	}
	return strings.EqualFold(originURL.Host, r.Host)
}

type wsConnWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSConnWriter(conn *websocket.Conn) *wsConnWriter {
	return &wsConnWriter{conn: conn}
}

func (w *wsConnWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(v)
}

// handleSearchWS runs queries as the client types. After a query the socket
// remembers it and pushes fresh results whenever the snapshot changes.
func (s *Server) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodGet) {
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	writer := newWSConnWriter(conn)
	_ = writer.WriteJSON(wsServerMessage{
		Type:     "status",
		Event:    "connected",
		ReadOnly: s.cfg.ReadOnly,
		Time:     time.Now().UTC(),
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var lastMu sync.Mutex
	var last *searchRequest

	changes := s.subscribe()
	defer s.unsubscribe(changes)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				lastMu.Lock()
				req := last
				lastMu.Unlock()
				if req == nil {
					continue
				}
				s.wsRunSearch(ctx, writer, *req, 0, true)
			}
		}
	}()

	// Close the socket when the server shuts down so ReadMessage returns.
	go func() {
		select {
		case <-ctx.Done():
		case <-s.baseCtx.Done():
			_ = conn.Close()
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				webLog.Warn("websocket_closed_unexpectedly", slog.String("error", err.Error()))
			}
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = writer.WriteJSON(wsServerMessage{
				Type:    "error",
				Code:    "INVALID_MESSAGE",
				Message: "invalid json payload",
				Time:    time.Now().UTC(),
			})
			continue
		}

		switch msg.Type {
		case "ping":
			_ = writer.WriteJSON(wsServerMessage{Type: "status", Event: "pong", Request: msg.Request, Time: time.Now().UTC()})
		case "query":
			req := searchRequest{Query: msg.Query, Scope: msg.Scope}
			lastMu.Lock()
			last = &req
			lastMu.Unlock()
			s.wsRunSearch(ctx, writer, req, msg.Request, false)
		case "execute":
			// executions are never replayed on snapshot changes
			s.wsRunSearch(ctx, writer, searchRequest{Query: msg.Query, Scope: msg.Scope, Execute: true}, msg.Request, false)
		default:
			_ = writer.WriteJSON(wsServerMessage{
				Type:    "error",
				Code:    "UNKNOWN_MESSAGE",
				Message: "unknown message type: " + msg.Type,
				Request: msg.Request,
				Time:    time.Now().UTC(),
			})
		}
	}
}

func (s *Server) wsRunSearch(ctx context.Context, writer *wsConnWriter, req searchRequest, requestID int, pushed bool) {
	resp, _, apiErr := s.runSearch(ctx, req)
	if apiErr != nil {
		_ = writer.WriteJSON(wsServerMessage{
			Type:    "error",
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Request: requestID,
			Pushed:  pushed,
			Time:    time.Now().UTC(),
		})
		return
	}
	_ = writer.WriteJSON(wsServerMessage{
		Type:    "results",
		Request: requestID,
		Pushed:  pushed,
		Search:  resp,
		Time:    time.Now().UTC(),
	})
}
