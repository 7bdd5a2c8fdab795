package http

import (
	"net/http"

	"plugfolio-deployer/internal/storage/snapshot"
)

type RunHandler struct {
	runs *snapshot.RunStore
}

func NewRunHandler(runs *snapshot.RunStore) *RunHandler {
	return &RunHandler{runs: runs}
}

func (h *RunHandler) Latest(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get()
	if !ok {
		JSONError(w, http.StatusNotFound, "no pipeline run has finished yet")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    run,
	})
}
