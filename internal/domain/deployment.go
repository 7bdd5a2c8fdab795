package domain

import (
	"fmt"
	"time"
)

// StateVersion is the schema version of DeploymentState. Bump it when a
// field changes meaning so stage invokers can reject states they do not
// understand.
const StateVersion = 1

const (
	InitialTag          = "initial"
	DefaultImageTag     = "latest"
	DefaultInternalPort = "3000"
)

type DeploymentStatus string

const (
	DeploymentPending DeploymentStatus = "pending"
	DeploymentSuccess DeploymentStatus = "success"
	DeploymentFailure DeploymentStatus = "failure"
)

// DeploymentState is the record threaded through every pipeline stage.
// Stages only ever add or refine fields; see Merge.
type DeploymentState struct {
	Version int `json:"version"`

	ExecutionID      string           `json:"execution_id,omitempty"`
	RepoURL          string           `json:"repo_url,omitempty"`
	DockerImageRepo  string           `json:"docker_image_repo,omitempty"`
	DockerImageTag   string           `json:"docker_image_tag,omitempty"`
	RootDomain       string           `json:"root_domain,omitempty"`
	Subdomain        string           `json:"subdomain,omitempty"`
	LastKnownGoodTag string           `json:"last_known_good_tag,omitempty"`
	InternalPort     string           `json:"internal_port,omitempty"`
	Status           DeploymentStatus `json:"status,omitempty"`
	Message          string           `json:"message,omitempty"`

	// Optional.
	Command          *RemoteCommandHandle  `json:"command,omitempty"`
	BuildEnvironment []EnvironmentVariable `json:"build_environment,omitempty"`
}

// EnvironmentVariable is one entry of the build pipeline's exported
// environment.
type EnvironmentVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RemoteCommandHandle identifies a command submitted to the remote
// command channel. Timestamps are RFC 3339 strings so the handle can be
// carried inside a serialized state.
type RemoteCommandHandle struct {
	CommandID    string              `json:"command_id"`
	DocumentName string              `json:"document_name"`
	HostIDs      []string            `json:"host_ids"`
	Status       string              `json:"status,omitempty"`
	Parameters   map[string][]string `json:"parameters,omitempty"`
	RequestedAt  string              `json:"requested_at,omitempty"`
	ExpiresAfter string              `json:"expires_after,omitempty"`
}

type Manifest struct {
	App ManifestApp `yaml:"app"`
}

type ManifestApp struct {
	// int or string in the file
	InternalPort any `yaml:"internal_port"`
}

func NewDeploymentState() DeploymentState {
	return DeploymentState{
		Version: StateVersion,
		Status:  DeploymentPending,
	}
}

// Merge returns s updated with every non-empty field of next. Fields
// that next leaves empty keep their value from s, so the result is
// always a superset of s.
func (s DeploymentState) Merge(next DeploymentState) DeploymentState {
	out := s

	if out.Version == 0 {
		out.Version = next.Version
	}

	mergeString(&out.ExecutionID, next.ExecutionID)
	mergeString(&out.RepoURL, next.RepoURL)
	mergeString(&out.DockerImageRepo, next.DockerImageRepo)
	mergeString(&out.DockerImageTag, next.DockerImageTag)
	mergeString(&out.RootDomain, next.RootDomain)
	mergeString(&out.Subdomain, next.Subdomain)
	mergeString(&out.LastKnownGoodTag, next.LastKnownGoodTag)
	mergeString(&out.InternalPort, next.InternalPort)

	// status and message travel together: a new status clears a stale
	// failure message.
	if next.Status != "" {
		out.Status = next.Status
		out.Message = next.Message
	} else {
		mergeString(&out.Message, next.Message)
	}
	if next.Command != nil {
		out.Command = next.Command
	}
	if len(next.BuildEnvironment) > 0 {
		out.BuildEnvironment = next.BuildEnvironment
	}

	return out
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Require reports ErrInvalidState naming the first listed field that is
// empty. Field names are the JSON keys.
func (s DeploymentState) Require(fields ...string) error {
	values := map[string]string{
		"repo_url":            s.RepoURL,
		"docker_image_repo":   s.DockerImageRepo,
		"docker_image_tag":    s.DockerImageTag,
		"root_domain":         s.RootDomain,
		"subdomain":           s.Subdomain,
		"last_known_good_tag": s.LastKnownGoodTag,
		"internal_port":       s.InternalPort,
		"status":              string(s.Status),
	}

	for _, f := range fields {
		v, known := values[f]
		if !known {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidState, f)
		}
		if v == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidState, f)
		}
	}

	return nil
}

// CheckVersion rejects states written by a newer schema.
func (s DeploymentState) CheckVersion() error {
	if s.Version > StateVersion {
		return fmt.Errorf("%w: unsupported state version %d", ErrInvalidState, s.Version)
	}
	return nil
}

// FormatTimestamp is the canonical string form for times stored in the
// state.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
