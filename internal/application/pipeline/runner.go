package pipeline

import (
	"context"
	"time"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

// Runner sequences the registered stages in-process, merging each
// stage's output into the accumulated state. The first stage error
// halts the run.
type Runner struct {
	registry *Registry
	bus      Publisher
	log      logger.Logger
}

func NewRunner(registry *Registry, bus Publisher, log logger.Logger) *Runner {
	return &Runner{
		registry: registry,
		bus:      bus,
		log:      log,
	}
}

func (r *Runner) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	state := in
	log := r.log.With("execution_id", state.ExecutionID)

	log.Info("pipeline started", "stages", r.registry.Names())

	var runErr error
	for _, stage := range r.registry.Stages() {
		next, err := r.runStage(ctx, log, stage, state)
		if err != nil {
			runErr = err
			break
		}
		state = next
	}

	if runErr != nil {
		state.Status = domain.DeploymentFailure
		state.Message = runErr.Error()
	}

	r.publish(domain.EventPipelineFinished, domain.EventPipelineFinishedPayload{
		ExecutionID: state.ExecutionID,
		State:       state,
		Error:       errString(runErr),
		FinishedAt:  time.Now().UTC(),
	})

	if runErr != nil {
		log.Error("pipeline failed", "kind", domain.ErrorKind(runErr), "error", runErr)
		return state, runErr
	}

	log.Info("pipeline finished", "status", state.Status, "image_tag", state.DockerImageTag)
	return state, nil
}

// RunStage invokes one registered stage by name and publishes the same
// stage events as a full run.
func (r *Runner) RunStage(ctx context.Context, name string, in domain.DeploymentState) (domain.DeploymentState, error) {
	stage, err := r.registry.Get(name)
	if err != nil {
		return in, err
	}
	return r.runStage(ctx, r.log.With("execution_id", in.ExecutionID, "stage", name), stage, in)
}

func (r *Runner) StageNames() []string {
	return r.registry.Names()
}

func (r *Runner) runStage(ctx context.Context, log logger.Logger, stage Stage, in domain.DeploymentState) (domain.DeploymentState, error) {
	name := stage.Name()
	start := time.Now()

	r.publish(domain.EventStageStarted, domain.EventStageStartedPayload{
		ExecutionID: in.ExecutionID,
		Stage:       name,
		StartedAt:   start.UTC(),
	})

	out, err := Invoke(ctx, stage, in)

	finished := domain.EventStageFinishedPayload{
		ExecutionID: in.ExecutionID,
		Stage:       name,
		Outcome:     outcome(name, out, err),
		Duration:    time.Since(start),
	}

	switch {
	case err != nil:
		finished.ErrorKind = domain.ErrorKind(err)
		finished.Error = err.Error()
		log.Error("stage failed", "stage", name, "kind", finished.ErrorKind, "error", err)
	case finished.Outcome == domain.OutcomeUnhealthy:
		log.Warn("deployment unhealthy", "stage", name, "kind", domain.ErrorKind(domain.ErrHealthCheckFailed), "message", out.Message)
	default:
		log.Debug("stage finished", "stage", name, "duration", finished.Duration)
	}

	r.publish(domain.EventStageFinished, finished)
	return out, err
}

func (r *Runner) publish(topic string, event any) {
	if r.bus != nil {
		r.bus.Publish(topic, event)
	}
}

func outcome(stage string, out domain.DeploymentState, err error) string {
	if err != nil {
		return domain.OutcomeFailed
	}
	if stage != StageCheckHealth {
		return domain.OutcomeOK
	}
	if out.Status == domain.DeploymentSuccess {
		return domain.OutcomeHealthy
	}
	return domain.OutcomeUnhealthy
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
