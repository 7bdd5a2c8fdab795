// Package trigger
package trigger

import (
	"context"
	"fmt"
	"time"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

type Publisher interface {
	Publish(topic string, event any)
}

// Service records the pushed repository and starts one pipeline
// execution for it.
type Service struct {
	store     domain.ParameterStore
	starter   domain.ExecutionStarter
	namespace string
	timeout   time.Duration
	bus       Publisher
	log       logger.Logger
}

func NewService(store domain.ParameterStore, starter domain.ExecutionStarter, namespace string, timeout time.Duration, bus Publisher, log logger.Logger) *Service {
	return &Service{
		store:     store,
		starter:   starter,
		namespace: namespace,
		timeout:   timeout,
		bus:       bus,
		log:       log,
	}
}

func (s *Service) Trigger(ctx context.Context, repoURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := domain.ParameterKey(s.namespace, domain.ParamGitRepoURL)
	if err := s.store.Put(ctx, key, repoURL, true); err != nil {
		return "", fmt.Errorf("%w: store repo url: %w", domain.ErrTriggerFailed, err)
	}

	executionID, err := s.starter.StartExecution(ctx, repoURL)
	if err != nil {
		return "", fmt.Errorf("%w: start execution: %w", domain.ErrTriggerFailed, err)
	}

	s.log.Info("pipeline triggered", "execution_id", executionID, "repo_url", repoURL)

	if s.bus != nil {
		s.bus.Publish(domain.EventExecutionTriggered, domain.EventExecutionTriggeredPayload{
			ExecutionID: executionID,
			RepoURL:     repoURL,
			TriggeredAt: time.Now().UTC(),
		})
	}

	return executionID, nil
}
