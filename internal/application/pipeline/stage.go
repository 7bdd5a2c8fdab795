// Package pipeline implements the deployment state machine: the stages
// that turn a pushed repository into a health-checked release, the
// registry that makes each stage invocable on its own, and a Runner
// that sequences them in-process.
package pipeline

import (
	"context"
	"fmt"

	"plugfolio-deployer/internal/domain"
)

const (
	StageResolveConfig      = "resolve-config"
	StageExtractBuildOutput = "extract-build-output"
	StageReadManifest       = "read-manifest"
	StageProvisionSubdomain = "provision-subdomain"
	StageDispatchCommand    = "dispatch-command"
	StageCheckHealth        = "check-health"
	StageRecordRelease      = "record-release"
)

// Stage is one idempotent step. Run receives the accumulated state and
// returns it with the stage's fields filled in.
type Stage interface {
	Name() string
	Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error)
}

// Publisher is the subset of event.Bus the pipeline needs.
type Publisher interface {
	Publish(topic string, event any)
}

type Registry struct {
	stages []Stage
	byName map[string]Stage
}

// NewRegistry registers stages in pipeline order.
func NewRegistry(stages ...Stage) *Registry {
	r := &Registry{byName: make(map[string]Stage, len(stages))}
	for _, s := range stages {
		r.stages = append(r.stages, s)
		r.byName[s.Name()] = s
	}
	return r
}

func (r *Registry) Get(name string) (Stage, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStage, name)
	}
	return s, nil
}

func (r *Registry) Stages() []Stage {
	return append([]Stage(nil), r.stages...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		names = append(names, s.Name())
	}
	return names
}

// Invoke runs a single stage at a stage boundary: it checks the state
// version and merges the output over the input so no field populated
// upstream is lost.
func Invoke(ctx context.Context, stage Stage, in domain.DeploymentState) (domain.DeploymentState, error) {
	if err := in.CheckVersion(); err != nil {
		return in, err
	}
	if in.Version == 0 {
		in.Version = domain.StateVersion
	}

	out, err := stage.Run(ctx, in)
	if err != nil {
		return in, err
	}

	return in.Merge(out), nil
}
