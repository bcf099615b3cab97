package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/export"
	"github.com/joseph-ayodele/shot-tracker/internal/llm"
	"github.com/joseph-ayodele/shot-tracker/internal/service"
)

const maxImageBytes = 10 << 20

// Handler contains dependencies for the HTTP handlers.
type Handler struct {
	svc       *service.ExtractionService
	exporter  *export.Service
	providers []llm.Provider
	quotaPing func(context.Context) error
	logger    *slog.Logger
}

// NewHandler wires the REST layer to the extraction service. quotaPing may
// be nil when the quota store has no remote connection to probe.
func NewHandler(
	svc *service.ExtractionService,
	exporter *export.Service,
	providers []llm.Provider,
	quotaPing func(context.Context) error,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:       svc,
		exporter:  exporter,
		providers: providers,
		quotaPing: quotaPing,
		logger:    logger,
	}
}

// HealthCheck reports provider availability and quota-store health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	services := map[string]bool{}
	for _, p := range h.providers {
		services[p.Name()] = p.Available()
	}
	if h.quotaPing != nil {
		services["quota_store"] = h.quotaPing(r.Context()) == nil
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}

// Extract handles POST /api/v1/extract: multipart image in, metrics out.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No image provided", err)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image", err)
		return
	}
	if len(image) == 0 {
		respondError(w, http.StatusBadRequest, "No image selected", nil)
		return
	}

	id := resolveIdentity(r)
	out, err := h.svc.Extract(r.Context(), id, image)
	if err != nil {
		var qe *common.QuotaError
		switch {
		case errors.As(err, &qe):
			respondJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":      "Daily limit exceeded",
				"limit":      qe.Limit,
				"reset_time": qe.ResetAt.UTC().Format(time.RFC3339),
			})
		case errors.Is(err, common.ErrAllProvidersExhausted):
			respondError(w, http.StatusUnprocessableEntity, "Failed to extract data from image", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Extraction failed", err)
		}
		return
	}

	resp := map[string]any{
		"success":    true,
		"data":       out.Metrics,
		"processor":  out.Provider,
		"elapsed_ms": out.Elapsed.Milliseconds(),
		"saved":      out.Saved,
		"rate_limit": map[string]any{
			"used":      out.Limit - out.Quota.Remaining,
			"limit":     out.Limit,
			"remaining": out.Quota.Remaining,
		},
	}
	if out.LedgerID != "" {
		resp["shot_id"] = out.LedgerID
	}
	if out.PersistErr != nil {
		resp["save_error"] = "failed to persist shot record"
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListShots handles GET /api/v1/shots for authenticated callers.
func (h *Handler) ListShots(w http.ResponseWriter, r *http.Request) {
	id := resolveIdentity(r)
	if !id.IsPersistent() {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	shots, err := h.svc.Shots(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch shots", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"shots": shots,
		"count": len(shots),
	})
}

// ExportShots handles GET /api/v1/shots/export?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) ExportShots(w http.ResponseWriter, r *http.Request) {
	id := resolveIdentity(r)
	if !id.IsPersistent() {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	from, err := parseDateParam(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)", err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)", err)
		return
	}

	b, err := h.exporter.ExportShotsXLSX(r.Context(), id, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to export shots", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="shots.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// resolveIdentity maps the request to a quota identity: an X-User-ID header
// is a persistent (authenticated upstream) caller, anything else is keyed
// by client address.
func resolveIdentity(r *http.Request) entity.Identity {
	if uid := strings.TrimSpace(r.Header.Get("X-User-ID")); uid != "" {
		return entity.PersistentIdentity(uid)
	}
	addr := r.Header.Get("X-Forwarded-For")
	if addr != "" {
		addr = strings.TrimSpace(strings.Split(addr, ",")[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		addr = host
	} else {
		addr = r.RemoteAddr
	}
	return entity.EphemeralIdentity(addr)
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	_ = json.NewEncoder(w).Encode(response)
}
