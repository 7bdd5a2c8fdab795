package pipeline

import (
	"context"
	"fmt"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

const BuildVarImageTag = "IMAGE_TAG"

// ExtractVariables picks keys out of a build's exported environment.
// Keys the build did not export map to "".
func ExtractVariables(env []domain.EnvironmentVariable, keys []string) (map[string]string, error) {
	if len(env) == 0 {
		return nil, fmt.Errorf("%w: build exported no environment", domain.ErrBuildOutputMissing)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys requested", domain.ErrBuildOutputMissing)
	}

	exported := make(map[string]string, len(env))
	for _, v := range env {
		exported[v.Name] = v.Value
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = exported[k]
	}
	return out, nil
}

// BuildOutputExtractor takes the image tag produced by the container
// build. Runs without a build environment pass through unchanged.
type BuildOutputExtractor struct {
	keys []string
	log  logger.Logger
}

func NewBuildOutputExtractor(keys []string, log logger.Logger) *BuildOutputExtractor {
	if len(keys) == 0 {
		keys = []string{BuildVarImageTag}
	}
	return &BuildOutputExtractor{keys: keys, log: log}
}

func (e *BuildOutputExtractor) Name() string { return StageExtractBuildOutput }

func (e *BuildOutputExtractor) Run(_ context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	if len(in.BuildEnvironment) == 0 {
		return in, nil
	}

	vars, err := ExtractVariables(in.BuildEnvironment, e.keys)
	if err != nil {
		return in, err
	}

	out := in
	if tag := vars[BuildVarImageTag]; tag != "" {
		out.DockerImageTag = tag
	}

	e.log.Debug("build output extracted", "variables", vars)
	return out, nil
}
