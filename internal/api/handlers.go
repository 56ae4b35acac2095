package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/finflow/muleguard/internal/engine"
	"github.com/finflow/muleguard/internal/export"
	"github.com/finflow/muleguard/internal/ingest"
	"github.com/finflow/muleguard/internal/telemetry"
)

const maxUploadBytes = 64 << 20 // 64 MiB

// HealthProber is satisfied by anything that can verify downstream
// connectivity for the liveness probe; the export bridge's client
// implements it, mirroring the teacher's HealthService/GraphHealthService
// pattern.
type HealthProber interface {
	VerifyConnectivity(ctx context.Context) error
}

// Handler holds the dependencies needed to serve the analysis API.
type Handler struct {
	logger   *slog.Logger
	cfg      engine.DetectorConfig
	bridge   *export.Bridge
	prober   HealthProber
	exportOn bool
}

// NewHandler constructs a Handler. bridge and prober may be nil when the
// export feature is disabled (no EXPORT_NEO4J_URI configured).
func NewHandler(logger *slog.Logger, cfg engine.DetectorConfig, bridge *export.Bridge, prober HealthProber) *Handler {
	return &Handler{
		logger:   logger,
		cfg:      cfg,
		bridge:   bridge,
		prober:   prober,
		exportOn: bridge != nil,
	}
}

// analyzeResponse matches the original FastAPI FullAnalysisResponse shape:
// the engine's result and graph payload side by side.
type analyzeResponse struct {
	Result engine.AnalysisResult `json:"result"`
	Graph  engine.GraphPayload   `json:"graph"`
}

// Analyze handles POST /analyze: a multipart CSV upload under field "file".
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "form field \"file\" is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "uploaded file must have a .csv extension")
		return
	}

	records, err := ingest.Parse(file)
	if err != nil {
		var ingestErr *ingest.Error
		if errors.As(err, &ingestErr) {
			writeError(w, http.StatusBadRequest, ingestErr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, end := telemetry.StartPhase(r.Context(), "engine.analyze")
	result, graph, err := engine.Analyze(ctx, records, h.cfg)
	end()
	if err != nil {
		h.logger.Error("analysis failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	telemetry.RecordAnalysis(ringCountsByPattern(result.FraudRings), result.Summary.TotalAccountsAnalyzed, result.Summary.ProcessingTimeSeconds)

	if h.exportOn {
		if err := h.bridge.Push(r.Context(), graph, result.FraudRings); err != nil {
			h.logger.Warn("export bridge push failed", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, analyzeResponse{Result: result, Graph: graph})
}

func ringCountsByPattern(rings []engine.FraudRing) map[string]int {
	counts := make(map[string]int, len(rings))
	for _, ring := range rings {
		counts[string(ring.PatternType)]++
	}
	return counts
}

// Health handles GET /healthz: liveness, plus an export connectivity probe
// when the bridge is configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}
	status := http.StatusOK

	if h.prober != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.prober.VerifyConnectivity(ctx); err != nil {
			h.logger.Error("health probe failed", "error", err)
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
			payload["error"] = err.Error()
		}
	}

	respondJSON(w, status, payload)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
