package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"rational-assistant/internal/models"

	"github.com/shopspring/decimal"
)

// StatisticsResponse is the decision summary together with the profile it relates to.
type StatisticsResponse struct {
	models.Statistics
	Efficiency     decimal.Decimal `json:"efficiency"`
	Salary         decimal.Decimal `json:"salary"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
	CurrentSavings decimal.Decimal `json:"current_savings"`
}

// Statistics returns counts and amounts of the user's purchases by status.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	stats, err := h.purchases.Statistics(r.Context(), user.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatisticsResponse{
		Statistics:     *stats,
		Efficiency:     stats.Efficiency(),
		Salary:         user.Salary,
		MonthlySavings: user.MonthlySavings,
		CurrentSavings: user.CurrentSavings,
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports whether the service and its database respond.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("health check", "error", err, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: h.db.Driver()})
}
