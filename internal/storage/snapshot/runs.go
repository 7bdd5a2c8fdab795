package snapshot

import "plugfolio-deployer/internal/domain"

// RunStore holds the most recently finished pipeline run.
type RunStore struct {
	Store[domain.EventPipelineFinishedPayload]
}

func NewRunStore() *RunStore {
	return &RunStore{}
}
