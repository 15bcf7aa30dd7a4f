package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/asheshgoplani/tabdeck/internal/command"
	"github.com/asheshgoplani/tabdeck/internal/engine"
	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/snapshot"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type catalogBang struct {
	query.BangDefinition
	Kind string `json:"kind"`
}

type catalogResponse struct {
	Bangs    []catalogBang             `json:"bangs"`
	Commands []query.CommandDefinition `json:"commands"`
	SortKeys []query.SortKey           `json:"sortKeys"`
}

type searchRequest struct {
	Query   string `json:"query"`
	Scope   string `json:"scope,omitempty"`
	Execute bool   `json:"execute,omitempty"`
}

type searchResponse struct {
	ParsedQuery    *query.ParsedQuery `json:"parsedQuery"`
	Results        []engine.Result    `json:"results"`
	Count          int                `json:"count"`
	CommandResults []command.Result   `json:"commandResults,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{Error: apiError{Code: code, Message: message}})
}

func buildCatalog() catalogResponse {
	defs := query.BangDefinitions()
	bangs := make([]catalogBang, 0, len(defs))
	for _, d := range defs {
		bangs = append(bangs, catalogBang{BangDefinition: d, Kind: d.Kind.String()})
	}
	return catalogResponse{
		Bangs:    bangs,
		Commands: query.CommandDefinitions(),
		SortKeys: query.SortKeys(),
	}
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, buildCatalog())
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": query.Suggest(r.URL.Query().Get("q")),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodPost) {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid json body")
		return
	}

	resp, status, apiErr := s.runSearch(r.Context(), req)
	if apiErr != nil {
		writeAPIError(w, status, apiErr.Code, apiErr.Message)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runSearch is shared by the HTTP and WebSocket handlers. On failure it
// returns the HTTP status and error to report.
func (s *Server) runSearch(ctx context.Context, req searchRequest) (*searchResponse, int, *apiError) {
	if s.cfg.Engine == nil {
		return nil, http.StatusServiceUnavailable, &apiError{"NO_ENGINE", "search engine is not configured"}
	}

	scope := s.cfg.DefaultScope
	if req.Scope != "" {
		parsed, err := tabs.ParseScope(req.Scope)
		if err != nil {
			return nil, http.StatusBadRequest, &apiError{"INVALID_SCOPE", err.Error()}
		}
		scope = parsed
	}

	opts, err := s.cfg.Options(ctx, scope)
	if err != nil {
		webLog.Error("search_options_failed", slog.String("error", err.Error()))
		return nil, http.StatusInternalServerError, &apiError{"INTERNAL_ERROR", "failed to load search options"}
	}

	var resp *engine.Response
	if req.Execute {
		if s.cfg.ReadOnly && engine.HasCommands(query.Parse(req.Query)) {
			return nil, http.StatusForbidden, &apiError{"READ_ONLY", "commands are disabled in read-only mode"}
		}
		resp, err = s.cfg.Engine.SearchAndExecute(ctx, req.Query, opts)
	} else {
		resp, err = s.cfg.Engine.Search(ctx, req.Query, opts)
	}
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil, http.StatusServiceUnavailable, &apiError{"NO_SNAPSHOT", "no tab snapshot available yet"}
	}
	if err != nil {
		webLog.Error("search_failed", slog.String("query", req.Query), slog.String("error", err.Error()))
		return nil, http.StatusInternalServerError, &apiError{"INTERNAL_ERROR", "search failed"}
	}

	return &searchResponse{
		ParsedQuery:    resp.ParsedQuery,
		Results:        resp.Results,
		Count:          engine.ResultCount(resp),
		CommandResults: resp.CommandResults,
	}, http.StatusOK, nil
}
