package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

const localExecutionPrefix = "local:"

// LocalStarter runs executions on the in-process Runner. Each run gets
// its own context bounded by timeout, detached from the caller's.
type LocalStarter struct {
	runner  *Runner
	timeout time.Duration
	log     logger.Logger

	wg sync.WaitGroup
}

func NewLocalStarter(runner *Runner, timeout time.Duration, log logger.Logger) *LocalStarter {
	return &LocalStarter{
		runner:  runner,
		timeout: timeout,
		log:     log,
	}
}

func (s *LocalStarter) StartExecution(_ context.Context, repoURL string) (string, error) {
	id := localExecutionPrefix + uuid.NewString()

	state := domain.NewDeploymentState()
	state.ExecutionID = id
	state.RepoURL = repoURL

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := s.runner.Run(ctx, state); err != nil {
			s.log.Warn("local execution ended with error", "execution_id", id, "error", err)
		}
	}()

	return id, nil
}

// Wait blocks until every started execution has finished.
func (s *LocalStarter) Wait() {
	s.wg.Wait()
}
