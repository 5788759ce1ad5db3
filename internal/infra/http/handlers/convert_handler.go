package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galvinus/lead-conversion/internal/infra/http/middleware"
	"github.com/galvinus/lead-conversion/internal/usecase"
)

type ConvertHandler struct {
	ConvertLeadUC *usecase.ConvertLeadUseCase
}

func NewConvertHandler(uc *usecase.ConvertLeadUseCase) *ConvertHandler {
	return &ConvertHandler{ConvertLeadUC: uc}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *ConvertHandler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")
	if leadID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "lead id is required")
		return
	}

	output, err := h.ConvertLeadUC.Execute(r.Context(), leadID)
	if err != nil {
		kind, ok := usecase.KindOf(err)
		if !ok {
			middleware.RecordConversion("UNKNOWN")
			writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
			return
		}

		middleware.RecordConversion(kind.String())
		writeError(w, statusForKind(kind), kind.String(), err.Error())
		return
	}

	middleware.RecordConversion("success")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(output)
}

func statusForKind(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindLeadNotFound:
		return http.StatusNotFound
	case usecase.KindAlreadyConverted, usecase.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: code, Message: message})
}
