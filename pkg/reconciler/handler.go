package reconciler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler serves the most recent reconciliation result.
type Handler struct {
	rec    *Reconciler
	logger *zap.Logger
}

// NewHandler creates an audit status handler.
func NewHandler(rec *Reconciler, logger *zap.Logger) *Handler {
	return &Handler{rec: rec, logger: logger}
}

// StatusResponse is the JSON body of the audit endpoint. Amounts are
// canonical 6-decimal USD units.
type StatusResponse struct {
	Healthy           bool     `json:"healthy"`
	RecordedUSD       string   `json:"recorded_usd"`
	RecomputedUSD     string   `json:"recomputed_usd"`
	DriftUSD          string   `json:"drift_usd"`
	MarketValueUSD    string   `json:"market_value_usd,omitempty"`
	RevalueError      string   `json:"revalue_error,omitempty"`
	PersistedDriftUSD string   `json:"persisted_drift_usd,omitempty"`
	Accounts          int      `json:"accounts"`
	Holdings          int      `json:"holdings"`
	Violations        []string `json:"violations,omitempty"`
	Mismatches        []string `json:"mismatches,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP answers GET with the last result. Before the first completed
// pass it answers 503. An unhealthy ledger is still 200; the body says so.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res, ok := h.rec.Last()
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, "no reconciliation pass has completed yet")
		return
	}

	resp := StatusResponse{
		Healthy:       res.Healthy(),
		RecordedUSD:   res.Audit.Recorded.String(),
		RecomputedUSD: res.Audit.Recomputed.String(),
		DriftUSD:      res.Audit.Drift.String(),
		Accounts:      res.Audit.Accounts,
		Holdings:      res.Audit.Holdings,
		Violations:    res.Audit.Violations,
		Mismatches:    res.Mismatches,
	}
	if res.MarketValue != nil {
		resp.MarketValueUSD = res.MarketValue.String()
	}
	if res.RevalueErr != nil {
		resp.RevalueError = res.RevalueErr.Error()
	}
	if res.PersistedDrift != nil {
		resp.PersistedDriftUSD = res.PersistedDrift.String()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}
