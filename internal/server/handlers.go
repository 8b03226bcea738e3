package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.RoutingRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.storage.CreateRule(r.Context(), &rule); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	rules, err := s.storage.ListRules(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rules == nil {
		rules = []model.RoutingRule{}
	}

	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	rule, err := s.storage.GetRule(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Patch semantics: decode over the stored rule so omitted fields keep
	// their values.
	if err := json.NewDecoder(r.Body).Decode(rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule.ID = id

	if err := s.storage.UpdateRule(r.Context(), rule); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	if err := s.storage.DeactivateRule(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunAutoRouting(w http.ResponseWriter, r *http.Request) {
	companyID := mux.Vars(r)["companyID"]

	summary, err := s.engine.RunAutoRouting(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetUnrouted(w http.ResponseWriter, r *http.Request) {
	companyID := mux.Vars(r)["companyID"]

	transactions, err := s.storage.GetUnroutedTransactions(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	companyID := mux.Vars(r)["companyID"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	events, err := s.storage.ListRoutingEvents(r.Context(), companyID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []model.RoutingEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}

type assignRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
	ProjectID      string   `json:"project_id"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" || len(req.TransactionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "project_id and transaction_ids are required")
		return
	}

	results, err := s.engine.Assign(r.Context(), req.TransactionIDs, req.ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case common.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrRuleNotFound),
		errors.Is(err, common.ErrTransactionNotFound),
		errors.Is(err, common.ErrProjectNotFound),
		errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
