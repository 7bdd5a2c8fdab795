package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

// ManifestReader clones the repository into a throwaway directory and
// reads the service's internal port from its manifest. It never fails:
// any problem is logged and the default port is used.
type ManifestReader struct {
	cloner      domain.RepositoryCloner
	file        string
	defaultPort string
	timeout     time.Duration
	workRoot    string
	log         logger.Logger
}

// CommitReader is implemented by cloners that can name the commit they
// checked out.
type CommitReader interface {
	GetCurrentCommit(ctx context.Context, repoDir string) (string, error)
}

func NewManifestReader(cloner domain.RepositoryCloner, file, defaultPort string, timeout time.Duration, log logger.Logger) *ManifestReader {
	if defaultPort == "" {
		defaultPort = domain.DefaultInternalPort
	}

	return &ManifestReader{
		cloner:      cloner,
		file:        file,
		defaultPort: defaultPort,
		timeout:     timeout,
		log:         log,
	}
}

// WithWorkRoot places the per-run working directories under dir instead
// of the system temp directory.
func (r *ManifestReader) WithWorkRoot(dir string) *ManifestReader {
	r.workRoot = dir
	return r
}

func (r *ManifestReader) Name() string { return StageReadManifest }

func (r *ManifestReader) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	out := in

	port, err := r.readPort(ctx, in.RepoURL)
	if err != nil {
		r.log.Warn("manifest unreadable, using default port",
			"default_port", r.defaultPort,
			"error", err,
		)
		port = r.defaultPort
	}

	out.InternalPort = port
	return out, nil
}

func (r *ManifestReader) readPort(ctx context.Context, repoURL string) (string, error) {
	if repoURL == "" {
		return "", fmt.Errorf("%w: no repository url", domain.ErrManifestUnreadable)
	}

	workDir, err := os.MkdirTemp(r.workRoot, "manifest-*")
	if err != nil {
		return "", fmt.Errorf("%w: create work dir: %w", domain.ErrManifestUnreadable, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			r.log.Error("failed to remove manifest work dir", "dir", workDir, "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	repoDir := filepath.Join(workDir, "repo")
	if err := r.cloner.Clone(ctx, repoURL, repoDir); err != nil {
		return "", fmt.Errorf("%w: clone: %w", domain.ErrManifestUnreadable, err)
	}

	data, err := os.ReadFile(filepath.Join(repoDir, r.file))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrManifestUnreadable, err)
	}

	port, err := ParseManifestPort(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrManifestUnreadable, r.file, err)
	}

	r.log.Info("manifest read",
		"file", r.file,
		"commit", r.commitOf(ctx, repoDir),
		"internal_port", port,
	)
	return port, nil
}

func (r *ManifestReader) commitOf(ctx context.Context, repoDir string) string {
	cr, ok := r.cloner.(CommitReader)
	if !ok {
		return ""
	}

	commit, err := cr.GetCurrentCommit(ctx, repoDir)
	if err != nil {
		r.log.Debug("manifest commit unknown", "error", err)
		return ""
	}
	return commit
}

var errNoPort = errors.New("app.internal_port not set")

// ParseManifestPort extracts app.internal_port from a YAML manifest and
// returns it in canonical decimal form.
func ParseManifestPort(data []byte) (string, error) {
	var m domain.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parse manifest: %w", err)
	}

	var port int
	switch v := m.App.InternalPort.(type) {
	case nil:
		return "", errNoPort
	case int:
		port = v
	case uint64:
		// yaml.v2 decodes integers above MaxInt64 as uint64
		if v > 65535 {
			return "", fmt.Errorf("internal_port %d out of range", v)
		}
		port = int(v)
	case float64:
		if v != float64(int(v)) {
			return "", fmt.Errorf("internal_port %v is not an integer", v)
		}
		port = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("internal_port %q is not an integer", v)
		}
		port = n
	default:
		return "", fmt.Errorf("internal_port has unsupported type %T", v)
	}

	if port < 1 || port > 65535 {
		return "", fmt.Errorf("internal_port %d out of range", port)
	}

	return strconv.Itoa(port), nil
}
