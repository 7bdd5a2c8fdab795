package ssh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugfolio-deployer/internal/domain"
)

func TestRenderCommand(t *testing.T) {
	cmd, err := RenderCommand("/opt/plugfolio/documents/", "deploy-app.sh", "abc", map[string][]string{
		"Subdomain":      {"dave.plugfolio.io"},
		"DockerImageTag": {"v5"},
		"RepoUrl":        {"https://github.com/dave/it's.git"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`DockerImageTag='v5' RepoUrl='https://github.com/dave/it'\''s.git' Subdomain='dave.plugfolio.io' `+
			`nohup '/opt/plugfolio/documents/deploy-app.sh' > '/tmp/plugfolio-abc.log' 2>&1 < /dev/null &`,
		cmd)
}

func TestRenderCommand_RejectsUnsafeNames(t *testing.T) {
	_, err := RenderCommand("/opt/docs", "../bin/sh", "abc", nil)
	assert.Error(t, err)

	_, err = RenderCommand("/opt/docs", "deploy.sh", "abc", map[string][]string{"A;rm": {"x"}})
	assert.Error(t, err)
}

func TestCommandChannel_Dispatch(t *testing.T) {
	var ran []string
	c := &CommandChannel{
		scriptDir: "/opt/docs",
		exec: func(_ context.Context, host, command string) error {
			ran = append(ran, host)
			assert.Contains(t, command, "nohup '/opt/docs/deploy.sh'")
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	handle, err := c.Dispatch(ctx, []string{"10.0.0.5", "10.0.0.6:2222"}, "deploy.sh", map[string][]string{"Subdomain": {"dave.plugfolio.io"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6:2222"}, ran)
	assert.NotEmpty(t, handle.CommandID)
	assert.Equal(t, "deploy.sh", handle.DocumentName)
	assert.Equal(t, statusInProgress, handle.Status)
	assert.NotEmpty(t, handle.RequestedAt)
	assert.NotEmpty(t, handle.ExpiresAfter)
}

func TestCommandChannel_DispatchStopsOnHostFailure(t *testing.T) {
	calls := 0
	c := &CommandChannel{
		scriptDir: "/opt/docs",
		exec: func(context.Context, string, string) error {
			calls++
			return errors.New("connection refused")
		},
	}

	_, err := c.Dispatch(context.Background(), []string{"10.0.0.5", "10.0.0.6"}, "deploy.sh", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewCommandChannel_RequiresKnownHosts(t *testing.T) {
	_, err := NewCommandChannel("deploy", "/home/deploy/.ssh/id_ed25519", "", "/opt/docs")
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}
