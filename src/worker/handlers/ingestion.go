package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"housetrades/src/schemas"
	"housetrades/src/utils"

	"github.com/go-chi/chi/v5"
)

const defaultRunsLimit = 20

// RunIngestion runs one ingestion kind and waits for it. The ingestion
// service bounds the run with its own timeout. Unknown kinds and overlapping
// runs are rejected before any run is recorded.
func (h *Handler) RunIngestion(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	runs, err := h.Controller.RunIngestion(r.Context(), kind)
	if err != nil {
		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) {
			h.HandleErrors(w, err)
			return
		}
		h.Controller.Logger.WithField("kind", kind).WithError(err).Error("Ingestion failed")
		h.respond(w, r, schemas.IngestionResponse{Kind: kind, Runs: runs, Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	h.respond(w, r, schemas.IngestionResponse{Kind: kind, Runs: runs}, http.StatusOK)
}

func (h *Handler) GetRecentRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := defaultRunsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.HandleErrors(w, utils.UnprocessableEntity("invalid limit: " + limitStr))
			return
		}
		limit = parsed
	}

	runs, err := h.Controller.RecentRuns(ctx, limit)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, runs, http.StatusOK)
}

func (h *Handler) GetValidationReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.Controller.ValidateStored(ctx)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, report, http.StatusOK)
}

func (h *Handler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Controller.GetSchedules(), http.StatusOK)
}
