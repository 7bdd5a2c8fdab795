package pipeline

import (
	"context"
	"fmt"
	"time"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

// RollbackRecorder stores the tag of a healthy release as the last
// known good one. The next run resolves it from the parameter store, so
// a failed deploy leaves the previous tag in place.
//
// Concurrent successful runs for the same target race on the write and
// the last one wins.
type RollbackRecorder struct {
	store     domain.ParameterStore
	namespace string
	timeout   time.Duration
	log       logger.Logger
}

func NewRollbackRecorder(store domain.ParameterStore, namespace string, timeout time.Duration, log logger.Logger) *RollbackRecorder {
	return &RollbackRecorder{
		store:     store,
		namespace: namespace,
		timeout:   timeout,
		log:       log,
	}
}

func (r *RollbackRecorder) Name() string { return StageRecordRelease }

func (r *RollbackRecorder) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	if in.Status != domain.DeploymentSuccess || in.DockerImageTag == "" {
		r.log.Info("release not recorded",
			"status", in.Status,
			"last_known_good_tag", in.LastKnownGoodTag,
		)
		return in, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := domain.ParameterKey(r.namespace, domain.ParamLastKnownGoodTag)
	if err := r.store.Put(ctx, key, in.DockerImageTag, true); err != nil {
		return in, fmt.Errorf("record last known good tag: %w", err)
	}

	r.log.Info("release recorded", "key", key, "tag", in.DockerImageTag)
	return in, nil
}
