package handlers

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"housetrades/src/utils"
)

func (h *Handler) GetAllRepresentatives(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.AllRepresentatives(ctx)
	h.respondRows(w, r, "AllRepresentatives", rows, err)
}

func (h *Handler) GetRepresentativeOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.RepresentativeOverview(ctx, r.URL.Query().Get("name"))
	h.respondRows(w, r, "RepresentativeOverview", rows, err)
}

func (h *Handler) GetSectorAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.SectorAnalysis(ctx, r.URL.Query().Get("name"))
	h.respondRows(w, r, "SectorAnalysis", rows, err)
}

func (h *Handler) GetCurrentPositions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.CurrentPositions(ctx, r.URL.Query().Get("name"))
	h.respondRows(w, r, "CurrentPositions", rows, err)
}

func (h *Handler) GetPositionSeries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.PositionSeries(ctx, r.URL.Query().Get("name"))
	h.respondRows(w, r, "PositionSeries", rows, err)
}

func (h *Handler) GetPortfolioValue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Dashboard.PortfolioValue(ctx, r.URL.Query().Get("name"))
	h.respondRows(w, r, "PortfolioValue", rows, err)
}

func (h *Handler) GetDailyActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := r.URL.Query()
	rows, err := h.Dashboard.DailyActivity(ctx, query.Get("name"), query.Get("ticker"))
	h.respondRows(w, r, "DailyActivity", rows, err)
}

// GetRepresentativeReport streams the XLSX workbook of one representative.
func (h *Handler) GetRepresentativeReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	name := r.URL.Query().Get("name")
	xlsxFile, err := h.Reports.GenerateXLSXReport(ctx, name)
	if err != nil {
		h.Logger.Warning(err)
		h.HandleErrors(w, err)
		return
	}
	defer xlsxFile.Close()

	filename := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	w.Header().Set("Content-Type", utils.XLSXContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename + ".xlsx"}))

	if err := xlsxFile.Write(w); err != nil {
		h.Logger.WithError(err).Error("Writing report failed")
	}
}
