package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/insights"
	"github.com/pi-tools/report-forge/pkg/services/render"
)

// maxUploadBytes caps the inspection document size; photo-heavy
// documents are still only JSON, real payloads sit well under this.
const maxUploadBytes = 32 << 20

// Generator is the orchestrator surface the handler needs.
type Generator interface {
	Generate(ctx context.Context, raw []byte) (*domain.RunResult, func(), error)
	Analyze(ctx context.Context, raw []byte) (*api.Insights, error)
	AIEnabled() bool
}

type Handler struct {
	generator Generator
}

func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// CreateReport accepts the inspection document as a multipart "file"
// field or a raw JSON body and streams the finished PDF back.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	raw, err := readDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, cleanup, err := h.generator.Generate(ctx, raw)
	if err != nil {
		h.writeGenerateError(w, logger, err)
		return
	}
	defer cleanup()

	f, err := os.Open(result.ArtifactPath)
	if err != nil {
		logger.Error().Err(err).Msg("artifact missing after generation")
		writeError(w, http.StatusInternalServerError, "report artifact unavailable")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="inspection_report_%s.pdf"`, result.RunID))
	if _, err := io.Copy(w, f); err != nil {
		logger.Error().Err(err).Msg("failed to stream report")
	}
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	var compileErr *render.CompileError
	switch {
	case errors.Is(err, domain.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &compileErr):
		logger.Error().Str("error_line", compileErr.Line).Msg("report compilation failed")
		writeError(w, http.StatusInternalServerError, compileErr.Error())
	default:
		logger.Error().Err(err).Msg("report generation failed")
		writeError(w, http.StatusInternalServerError, "report generation failed")
	}
}

// AnalyzeReport returns the AI insights for an inspection document.
func (h *Handler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	raw, err := readDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.generator.Analyze(ctx, raw)
	switch {
	case errors.Is(err, insights.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, domain.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Error().Err(err).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, api.AnalyzeResponse{Success: true, Analysis: *result})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		AIEnabled: h.generator.AIEnabled(),
	})
}

func readDocument(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing multipart field %q", "file")
		}
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file: %w", err)
		}
		return raw, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("request body is empty")
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
