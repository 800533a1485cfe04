package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

// maxIngestBody bounds a bridge delivery; MaxBatchSize entries fit well inside.
const maxIngestBody = 4 << 20

type BiometricHandler interface {
	Ingest(w http.ResponseWriter, r *http.Request)
	Pull(w http.ResponseWriter, r *http.Request)
}

type biometricHandlerImpl struct {
	ingestService punch.IngestService
}

func NewBiometricHandler(ingestService punch.IngestService) BiometricHandler {
	return &biometricHandlerImpl{ingestService: ingestService}
}

// Ingest implements BiometricHandler.
func (h *biometricHandlerImpl) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIngestBody)

	var req punch.IngestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.ingestService.Ingest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Punch logs ingested", result)
}

// Pull implements BiometricHandler. A device failure surfaces as 502.
func (h *biometricHandlerImpl) Pull(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingestService.PullFromDevice(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Device logs pulled", result)
}
