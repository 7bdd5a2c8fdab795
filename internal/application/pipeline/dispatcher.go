package pipeline

import (
	"context"
	"fmt"
	"time"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
	"plugfolio-deployer/internal/validator"
)

// Parameter names understood by the remote deploy document.
const (
	DocParamRepoURL          = "RepoUrl"
	DocParamDockerImageRepo  = "DockerImageRepo"
	DocParamDockerImageTag   = "DockerImageTag"
	DocParamSubdomain        = "Subdomain"
	DocParamLastKnownGoodTag = "LastKnownGoodTag"
	DocParamBucketName       = "BucketName"
	DocParamInternalPort     = "InternalPort"
)

type DispatchRequest struct {
	HostIDs      []string            `json:"host_ids" validate:"required,min=1,dive,required"`
	DocumentName string              `json:"document_name" validate:"required"`
	Parameters   map[string][]string `json:"parameters"`
}

// CommandDispatcher submits the deploy document to the target hosts.
type CommandDispatcher struct {
	channel    domain.CommandChannel
	hostIDs    []string
	document   string
	bucketName string
	timeout    time.Duration
	validator  validator.Validator
	log        logger.Logger
}

func NewCommandDispatcher(channel domain.CommandChannel, hostIDs []string, document, bucketName string, timeout time.Duration, log logger.Logger) *CommandDispatcher {
	return &CommandDispatcher{
		channel:    channel,
		hostIDs:    hostIDs,
		document:   document,
		bucketName: bucketName,
		timeout:    timeout,
		validator:  validator.NewValidator(),
		log:        log,
	}
}

func (d *CommandDispatcher) Name() string { return StageDispatchCommand }

func (d *CommandDispatcher) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	req := DispatchRequest{
		HostIDs:      d.hostIDs,
		DocumentName: d.document,
		Parameters:   d.parameters(in),
	}

	if errs := d.validator.Validate(req); len(errs) > 0 {
		return in, fmt.Errorf("%w: %s", domain.ErrInvalidDispatchRequest, validator.Summary(errs))
	}

	if err := in.Require("repo_url", "docker_image_repo", "docker_image_tag", "subdomain", "last_known_good_tag"); err != nil {
		return in, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	handle, err := d.channel.Dispatch(ctx, req.HostIDs, req.DocumentName, req.Parameters)
	if err != nil {
		return in, fmt.Errorf("%w: %w", domain.ErrRemoteDispatchFailed, err)
	}

	d.log.Info("deploy command dispatched",
		"command_id", handle.CommandID,
		"document", req.DocumentName,
		"hosts", req.HostIDs,
		"image_tag", in.DockerImageTag,
	)

	out := in
	out.Command = handle
	return out, nil
}

// parameters wraps each value as a one-element list, the form the
// command document substitutes. Optional values are left out when
// empty.
func (d *CommandDispatcher) parameters(s domain.DeploymentState) map[string][]string {
	params := map[string][]string{
		DocParamRepoURL:          {s.RepoURL},
		DocParamDockerImageRepo:  {s.DockerImageRepo},
		DocParamDockerImageTag:   {s.DockerImageTag},
		DocParamSubdomain:        {s.Subdomain},
		DocParamLastKnownGoodTag: {s.LastKnownGoodTag},
	}
	if d.bucketName != "" {
		params[DocParamBucketName] = []string{d.bucketName}
	}
	if s.InternalPort != "" {
		params[DocParamInternalPort] = []string{s.InternalPort}
	}
	return params
}
