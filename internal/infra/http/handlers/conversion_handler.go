package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galvinus/lead-conversion/internal/entity"
	"github.com/galvinus/lead-conversion/internal/usecase"
)

type ConversionHandler struct {
	GetConversionUC *usecase.GetConversionUseCase
}

func NewConversionHandler(uc *usecase.GetConversionUseCase) *ConversionHandler {
	return &ConversionHandler{GetConversionUC: uc}
}

func (h *ConversionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")
	if leadID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "lead id is required")
		return
	}

	conversion, err := h.GetConversionUC.Execute(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, entity.ErrConversionNotFound) {
			writeError(w, http.StatusNotFound, "CONVERSION_NOT_FOUND", "lead has no conversion")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(conversion)
}
