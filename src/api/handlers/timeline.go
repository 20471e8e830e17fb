package handlers

import (
	"context"
	"net/http"
)

func (h *Handler) GetTradingTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	startDate, err := parseOptionalDate(r, "startDate")
	if err != nil {
		h.Logger.Warning(err)
		h.HandleErrors(w, err)
		return
	}
	endDate, err := parseOptionalDate(r, "endDate")
	if err != nil {
		h.Logger.Warning(err)
		h.HandleErrors(w, err)
		return
	}

	rows, err := h.Dashboard.TradingTimeline(ctx, startDate, endDate)
	h.respondRows(w, r, "TradingTimeline", rows, err)
}
