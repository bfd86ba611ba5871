package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"stock-researcher/config"
	"stock-researcher/internal/app"
	"stock-researcher/models"
	"stock-researcher/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxQueryLength bounds the free-text query accepted over HTTP.
const maxQueryLength = 500

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// ResearchRequest is the POST /api/research payload.
type ResearchRequest struct {
	Query  string `json:"query"`
	Secret string `json:"secret"`
}

// HandleIndex serves the minimal research form.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexTemplate.Execute(w, nil)
}

// HandleResearch runs one research query end to end and returns the
// result record.
func (h *Handler) HandleResearch(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
			return
		}
	} else {
		_ = r.ParseForm()
		req.Query = r.FormValue("query")
		req.Secret = r.FormValue("secret")
	}

	if !h.secretOK(req.Secret) {
		h.jsonError(w, "invalid access secret", http.StatusUnauthorized)
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		h.jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	if len(req.Query) > maxQueryLength {
		h.jsonError(w, fmt.Sprintf("query too long (max %d characters)", maxQueryLength), http.StatusBadRequest)
		return
	}

	result := h.app.Research(r.Context(), req.Query)
	h.jsonResponse(w, result)
}

// HandleReportDownload serves the newest persisted report for a ticker
// as a markdown attachment.
func (h *Handler) HandleReportDownload(w http.ResponseWriter, r *http.Request) {
	if !h.secretOK(r.URL.Query().Get("secret")) {
		h.jsonError(w, "invalid access secret", http.StatusUnauthorized)
		return
	}

	if h.app.Repo() == nil {
		h.jsonError(w, "run history is not configured", http.StatusServiceUnavailable)
		return
	}

	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	if ticker == "" {
		h.jsonError(w, "ticker is required", http.StatusBadRequest)
		return
	}

	run, err := h.app.Repo().LatestRunForTicker(r.Context(), ticker)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil || run.Report == "" {
		h.jsonError(w, "no report found for "+ticker, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ticker+"-report.md"))
	w.Write([]byte(run.Report))
}

// HandleRunHistory lists recent persisted research runs, newest first.
// An optional ticker query parameter narrows the listing.
func (h *Handler) HandleRunHistory(w http.ResponseWriter, r *http.Request) {
	if !h.secretOK(r.URL.Query().Get("secret")) {
		h.jsonError(w, "invalid access secret", http.StatusUnauthorized)
		return
	}

	if h.app.Repo() == nil {
		h.jsonError(w, "run history is not configured", http.StatusServiceUnavailable)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		runs []models.ResearchRun
		err  error
	)
	if ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker"))); ticker != "" {
		runs, err = h.app.Repo().GetRunsByTicker(r.Context(), ticker, limit)
	} else {
		runs, err = h.app.Repo().GetRuns(r.Context(), limit)
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleRunByID returns one persisted research run.
func (h *Handler) HandleRunByID(w http.ResponseWriter, r *http.Request) {
	if !h.secretOK(r.URL.Query().Get("secret")) {
		h.jsonError(w, "invalid access secret", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "invalid run id", http.StatusBadRequest)
		return
	}

	if h.app.Repo() == nil {
		h.jsonError(w, "run history is not configured", http.StatusServiceUnavailable)
		return
	}

	run, err := h.app.Repo().GetRun(r.Context(), id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		h.jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, run)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
			"llm":      "not_configured",
			"news":     "not_configured",
		},
	}
	svcStatus := status["services"].(map[string]string)

	if h.app.HasLLM() {
		svcStatus["llm"] = "configured"
	}

	if h.app.HasNews() {
		if h.app.NewsAvailable(r.Context()) {
			svcStatus["news"] = "available"
		} else {
			svcStatus["news"] = "unavailable"
			status["status"] = "degraded"
		}
	}

	if h.app.Repo() != nil {
		if err := h.app.Repo().Health(r.Context()); err == nil {
			svcStatus["database"] = "connected"
		} else {
			svcStatus["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		svcStatus["database"] = "not_configured"
	}

	// Add circuit breaker status
	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// secretOK compares the supplied secret against the configured one in
// constant time. An empty configured secret disables the gate, which is
// only sensible for local development.
func (h *Handler) secretOK(supplied string) bool {
	secret := h.cfg.HTTP.AccessSecret
	if secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) == 1
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
