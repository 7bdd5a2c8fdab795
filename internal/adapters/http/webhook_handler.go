package http

import (
	"context"
	"errors"
	"net/http"

	"plugfolio-deployer/internal/adapters/http/request"
	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
	"plugfolio-deployer/internal/validator"
)

type Triggerer interface {
	Trigger(ctx context.Context, repoURL string) (string, error)
}

type WebhookHandler struct {
	svc       Triggerer
	decoder   request.RequestDecoder
	validator validator.Validator
	log       logger.Logger
}

func NewWebhookHandler(svc Triggerer, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:       svc,
		decoder:   request.NewLenientJSONDecoder(),
		validator: validator.NewValidator(),
		log:       log,
	}
}

func (h *WebhookHandler) Push(w http.ResponseWriter, r *http.Request) {
	var evt domain.PushEvent
	if err := h.decoder.Decode(r, &evt); err != nil {
		if errors.Is(err, request.ErrBodyTooLarge) {
			JSONError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if errs := h.validator.Validate(evt); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}

	executionID, err := h.svc.Trigger(r.Context(), evt.Repository.CloneURL)
	if err != nil {
		h.log.Error("webhook trigger failed", "repo_url", evt.Repository.CloneURL, "error", err)
		JSONError(w, http.StatusBadGateway, "failed to start deployment")
		return
	}

	writeJSON(w, http.StatusOK, domain.TriggerResponse{ExecutionArn: executionID})
}
