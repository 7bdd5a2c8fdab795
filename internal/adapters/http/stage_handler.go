package http

import (
	"context"
	"errors"
	"net/http"

	"plugfolio-deployer/internal/adapters/http/request"
	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

type StageRunner interface {
	RunStage(ctx context.Context, name string, in domain.DeploymentState) (domain.DeploymentState, error)
	StageNames() []string
}

// StageHandler lets an external orchestrator run one stage per request,
// passing the accumulated state in and out.
type StageHandler struct {
	runner  StageRunner
	decoder request.RequestDecoder
	log     logger.Logger
}

func NewStageHandler(runner StageRunner, log logger.Logger) *StageHandler {
	return &StageHandler{
		runner:  runner,
		decoder: request.NewJSONDecoder(),
		log:     log,
	}
}

func (h *StageHandler) Index(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    h.runner.StageNames(),
	})
}

func (h *StageHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var in domain.DeploymentState
	if err := h.decoder.Decode(r, &in); err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.runner.RunStage(r.Context(), name, in)
	if err != nil {
		kind := domain.ErrorKind(err)
		status := stageErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("stage request failed", "stage", name, "kind", kind, "error", err)
		}

		writeJSON(w, status, APIResponse{
			Message: err.Error(),
			Kind:    kind,
			Data:    in,
		})
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    out,
	})
}

func stageErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownStage):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrInvalidDispatchRequest):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfigurationMissing):
		return http.StatusFailedDependency
	case errors.Is(err, domain.ErrDNSProvisioningFailed), errors.Is(err, domain.ErrRemoteDispatchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
