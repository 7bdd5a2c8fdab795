package domain

import "context"

// Parameter names, relative to the deployment target's namespace.
const (
	ParamGitRepoURL       = "GitRepoUrl"
	ParamDockerImageRepo  = "DockerImageRepo"
	ParamRootDomain       = "RootDomain"
	ParamLastKnownGoodTag = "LastKnownGoodTag"
)

// ParameterKey joins a namespace such as "/plugfolio" with a parameter
// name.
func ParameterKey(namespace, name string) string {
	if namespace == "" {
		return "/" + name
	}
	if namespace[len(namespace)-1] == '/' {
		return namespace + name
	}
	return namespace + "/" + name
}

// ParameterStore is a key-value store. Get returns ErrParameterNotFound
// for a missing key; Put with overwrite=false returns ErrParameterExists
// for an existing one.
type ParameterStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, overwrite bool) error
}

type DNSProvider interface {
	UpsertARecord(ctx context.Context, zone, name, ip string, ttl int64) error
}

type CommandChannel interface {
	Dispatch(ctx context.Context, hostIDs []string, document string, params map[string][]string) (*RemoteCommandHandle, error)
}

type RepositoryCloner interface {
	Clone(ctx context.Context, repoURL, destDir string) error
}

// ExecutionStarter starts one asynchronous pipeline execution and
// returns its identifier.
type ExecutionStarter interface {
	StartExecution(ctx context.Context, repoURL string) (string, error)
}

type DNSRecord struct {
	Zone      string `json:"zone"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	TTL       int64  `json:"ttl"`
	UpdatedAt string `json:"updated_at"`
}
