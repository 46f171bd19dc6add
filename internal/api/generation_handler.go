package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/api/shared"
	"github.com/phrazzld/scry-mcq/internal/platform/logger"
	"github.com/phrazzld/scry-mcq/internal/service"
)

// GenerationHandler serves the generation endpoints.
type GenerationHandler struct {
	service service.GenerationService
}

// NewGenerationHandler creates a GenerationHandler.
func NewGenerationHandler(svc service.GenerationService) *GenerationHandler {
	return &GenerationHandler{service: svc}
}

// CreateGeneration handles POST /api/generations.
//
// By default the run executes within the request and the stored run is
// returned with 201. With ?async=true the run is queued and the job is
// returned with 202.
func (h *GenerationHandler) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req GenerateRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if async {
		rec, err := h.service.Submit(r.Context(), req.toInput())
		if err != nil {
			h.respondWithServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/generations/jobs/"+rec.ID.String())
		shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(rec))
		return
	}

	result, err := h.service.Generate(r.Context(), req.toInput())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	log.Debug("generation run returned", "run_id", result.ID)
	w.Header().Set("Location", "/api/generations/"+result.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// GetGeneration handles GET /api/generations/{id}.
func (h *GenerationHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, run)
}

// GetJob handles GET /api/generations/jobs/{id}.
func (h *GenerationHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(rec))
}

func (h *GenerationHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// pathUUID parses a UUID path parameter, writing a 400 response on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
