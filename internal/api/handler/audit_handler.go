// Package handler serves the audit API over the reading store.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/store"
)

// Audit exposes read-only audit queries over the reading store.
type Audit struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewAudit creates the audit handler set.
func NewAudit(st *store.Store, logger zerolog.Logger) *Audit {
	return &Audit{
		store:  st,
		logger: logger.With().Str("component", "audit-api").Logger(),
	}
}

// ListReadings returns the most recent persisted readings.
// GET /api/v1/readings?limit=N
func (a *Audit) ListReadings(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	readings, err := a.store.ListReadings(r.Context(), limit)
	if err != nil {
		a.fail(w, "list readings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(readings),
		"readings": readings,
	})
}

// Stats returns the audit counters: totals, warnings, dead letters, and
// the per-brand breakdown.
// GET /api/v1/readings/stats
func (a *Audit) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := a.store.CountReadings(ctx)
	if err != nil {
		a.fail(w, "count readings", err)
		return
	}
	warnings, err := a.store.CountWarnings(ctx)
	if err != nil {
		a.fail(w, "count warnings", err)
		return
	}
	deadLetters, err := a.store.CountDeadLetters(ctx)
	if err != nil {
		a.fail(w, "count dead letters", err)
		return
	}
	brands, err := a.store.BrandCounts(ctx)
	if err != nil {
		a.fail(w, "count brands", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"readings":     total,
		"warnings":     warnings,
		"dead_letters": deadLetters,
		"brands":       brands,
	})
}

// ListDeadLetters returns the most recent dead-lettered items.
// GET /api/v1/deadletters?limit=N
func (a *Audit) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	items, err := a.store.ListDeadLetters(r.Context(), limit)
	if err != nil {
		a.fail(w, "list dead letters", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":        len(items),
		"dead_letters": items,
	})
}

// Health reports liveness.
// GET /healthz
func (a *Audit) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (a *Audit) fail(w http.ResponseWriter, op string, err error) {
	a.logger.Error().Err(err).Str("op", op).Msg("audit query failed")
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": op + " failed"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
