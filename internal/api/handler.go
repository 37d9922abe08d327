package api

import (
	"area_service/internal/core"
	"area_service/internal/domain/model"
	"encoding/json"
	"net/http"
)

type Handler struct {
	service *core.AnalysisService
}

func NewHandler(service *core.AnalysisService) *Handler {
	return &Handler{service: service}
}

type AnalyzeRequest struct {
	City string `json:"city"`
	Area string `json:"area"`
}

// ErrorResponse is the structured failure body; Error carries the error kind.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AnalyzeArea handles POST /api/analyze-area.
func (h *Handler) AnalyzeArea(w http.ResponseWriter, r *http.Request) {
	// The map frontend is served from another origin
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, string(model.KindInvalidInput), "method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(model.KindInvalidInput), "invalid request body")
		return
	}

	result, err := h.service.Analyze(r.Context(), model.Query{City: req.City, Area: req.Area})
	if err != nil {
		kind := model.KindOf(err)
		writeError(w, statusForKind(kind), errorName(kind), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: kind, Message: message})
}

func errorName(kind model.ErrorKind) string {
	if kind == "" {
		return "internal"
	}
	return string(kind)
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindAmbiguousLocation:
		return http.StatusConflict
	case model.KindDataSourceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
