package pipeline

import (
	"context"
	"errors"
	"time"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

// ConfigResolver reads the deployment parameters of one target from
// the parameter store.
type ConfigResolver struct {
	store     domain.ParameterStore
	namespace string
	timeout   time.Duration
	log       logger.Logger
}

func NewConfigResolver(store domain.ParameterStore, namespace string, timeout time.Duration, log logger.Logger) *ConfigResolver {
	return &ConfigResolver{
		store:     store,
		namespace: namespace,
		timeout:   timeout,
		log:       log,
	}
}

func (r *ConfigResolver) Name() string { return StageResolveConfig }

func (r *ConfigResolver) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out := in

	required := []struct {
		name string
		dst  *string
	}{
		{domain.ParamGitRepoURL, &out.RepoURL},
		{domain.ParamDockerImageRepo, &out.DockerImageRepo},
		{domain.ParamRootDomain, &out.RootDomain},
	}

	for _, p := range required {
		v, err := r.lookup(ctx, p.name)
		if err != nil {
			return in, err
		}
		*p.dst = v
	}

	tag, err := r.lookup(ctx, domain.ParamLastKnownGoodTag)
	switch {
	case err == nil:
		out.LastKnownGoodTag = tag
	case errors.Is(err, domain.ErrParameterNotFound):
		r.log.Info("no last known good tag recorded, assuming first deployment")
		out.LastKnownGoodTag = domain.InitialTag
	default:
		return in, err
	}

	if out.DockerImageTag == "" {
		out.DockerImageTag = domain.DefaultImageTag
	}

	r.log.Debug("configuration resolved",
		"namespace", r.namespace,
		"docker_image_repo", out.DockerImageRepo,
		"root_domain", out.RootDomain,
		"last_known_good_tag", out.LastKnownGoodTag,
	)

	return out, nil
}

// lookup returns the value of name. Any failure, including an empty
// value, is a ConfigurationMissingError wrapping the store's error.
func (r *ConfigResolver) lookup(ctx context.Context, name string) (string, error) {
	key := domain.ParameterKey(r.namespace, name)

	v, err := r.store.Get(ctx, key)
	if err != nil {
		return "", &domain.ConfigurationMissingError{Key: key, Err: err}
	}
	if v == "" {
		return "", &domain.ConfigurationMissingError{Key: key, Err: domain.ErrParameterNotFound}
	}

	return v, nil
}
