package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

func healthInput(srv *httptest.Server) domain.DeploymentState {
	in := dispatchInput()
	in.Subdomain = strings.TrimPrefix(srv.URL, "http://")
	return in
}

func TestHealthChecker_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	in := healthInput(srv)
	out, err := NewHealthChecker(time.Second, logger.Nop()).Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentSuccess, out.Status)
	assert.Equal(t, in.Subdomain, out.Subdomain)
	assert.Equal(t, in.RepoURL, out.RepoURL)
	assert.Equal(t, in.DockerImageRepo, out.DockerImageRepo)
	assert.Equal(t, in.DockerImageTag, out.DockerImageTag)
	assert.Equal(t, in.LastKnownGoodTag, out.LastKnownGoodTag)
}

func TestHealthChecker_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := NewHealthChecker(time.Second, logger.Nop()).Run(context.Background(), healthInput(srv))
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.Contains(t, out.Message, "500")
	assert.Equal(t, "Health check failed with status code 500", out.Message)
}

func TestHealthChecker_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	out, err := NewHealthChecker(50*time.Millisecond, logger.Nop()).Run(context.Background(), healthInput(srv))
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.Contains(t, out.Message, "timed out")
}

func TestHealthChecker_RunDeadlineBeforeProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := NewHealthChecker(5*time.Second, logger.Nop()).Run(ctx, healthInput(srv))
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.Contains(t, out.Message, "run deadline exceeded")
	assert.NotContains(t, out.Message, "after 5s")
}

func TestHealthChecker_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	in := healthInput(srv)
	srv.Close()

	out, err := NewHealthChecker(time.Second, logger.Nop()).Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.True(t, strings.HasPrefix(out.Message, "Health check failed: "), out.Message)
}

func TestHealthChecker_MissingSubdomain(t *testing.T) {
	in := dispatchInput()
	in.Subdomain = ""

	out, err := NewHealthChecker(time.Second, logger.Nop()).Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.Equal(t, "Subdomain not found in state", out.Message)
}
