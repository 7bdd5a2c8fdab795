package domain

import "time"

const (
	EventStageStarted       = "stage_started"
	EventStageFinished      = "stage_finished"
	EventPipelineFinished   = "pipeline_finished"
	EventExecutionTriggered = "execution_triggered"
)

type EventStageStartedPayload struct {
	ExecutionID string    `json:"execution_id"`
	Stage       string    `json:"stage"`
	StartedAt   time.Time `json:"started_at"`
}

type EventStageFinishedPayload struct {
	ExecutionID string        `json:"execution_id"`
	Stage       string        `json:"stage"`
	Outcome     string        `json:"outcome"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

type EventPipelineFinishedPayload struct {
	ExecutionID string          `json:"execution_id"`
	State       DeploymentState `json:"state"`
	Error       string          `json:"error,omitempty"`
	FinishedAt  time.Time       `json:"finished_at"`
}

type EventExecutionTriggeredPayload struct {
	ExecutionID string    `json:"execution_id"`
	RepoURL     string    `json:"repo_url"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Stage outcomes reported in EventStageFinishedPayload and metrics.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeHealthy   = "healthy"
	OutcomeUnhealthy = "unhealthy"
)
