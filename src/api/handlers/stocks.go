package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetStocksWithPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.StocksWithPrices(ctx)
	h.respondRows(w, r, "StocksWithPrices", rows, err)
}

func (h *Handler) GetAllTickers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.AllTickers(ctx)
	h.respondRows(w, r, "AllTickers", rows, err)
}

func (h *Handler) GetStockPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.StockPrices(ctx, chi.URLParam(r, "ticker"))
	h.respondRows(w, r, "StockPrices", rows, err)
}

func (h *Handler) GetStockOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.StockOverview(ctx, r.URL.Query().Get("ticker"))
	h.respondRows(w, r, "StockOverview", rows, err)
}

func (h *Handler) GetStockPositions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.StockPositions(ctx, chi.URLParam(r, "ticker"))
	h.respondRows(w, r, "StockPositions", rows, err)
}

func (h *Handler) GetStockTradingTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.StockTradingTimeline(ctx, chi.URLParam(r, "ticker"))
	h.respondRows(w, r, "StockTradingTimeline", rows, err)
}

func (h *Handler) GetPartyDistribution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.PartyDistribution(ctx, chi.URLParam(r, "ticker"))
	h.respondRows(w, r, "PartyDistribution", rows, err)
}
