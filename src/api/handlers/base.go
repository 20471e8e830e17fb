package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"housetrades/src/services"
	"housetrades/src/utils"

	"github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	Dashboard services.DashboardServiceI
	Reports   services.ReportServiceI
	Logger    *logrus.Logger
}

func NewHandler(dashboard services.DashboardServiceI, reports services.ReportServiceI, logger *logrus.Logger) *Handler {
	return &Handler{Dashboard: dashboard, Reports: reports, Logger: logger}
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// respondRows writes the result of a dashboard query. Dashboard queries
// return an empty slice together with their error once the database could
// not be reached, so the error is logged and the empty result is served.
func (h *Handler) respondRows(w http.ResponseWriter, r *http.Request, query string, rows interface{}, err error) {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			h.HandleErrors(w, err)
			return
		}
		h.Logger.WithFields(logrus.Fields{"query": query, "path": r.URL.Path}).WithError(err).Error("Dashboard query failed")
	}
	h.respond(w, r, rows, http.StatusOK)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, err error) {
	utils.WriteError(w, err)
}

// parseOptionalDate reads a 2006-01-02 query parameter. An absent parameter
// yields nil.
func parseOptionalDate(r *http.Request, param string) (*time.Time, error) {
	value := r.URL.Query().Get(param)
	date, err := utils.ParseOptionalDate(value)
	if err != nil {
		return nil, utils.UnprocessableEntity("invalid " + param + ": " + value)
	}
	return date, nil
}
