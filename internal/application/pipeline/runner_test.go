package pipeline

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

// routeTo sends every request to srv whatever host the URL names.
func routeTo(srv *httptest.Server) http.RoundTripper {
	addr := srv.Listener.Addr().String()
	return &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
}

type pipelineFixture struct {
	store   *fakeStore
	dns     *fakeDNS
	channel *fakeChannel
	bus     *recordingBus
	runner  *Runner
}

func newPipelineFixture(t *testing.T, health http.HandlerFunc) *pipelineFixture {
	t.Helper()

	srv := httptest.NewServer(health)
	t.Cleanup(srv.Close)

	f := &pipelineFixture{
		store:   seededStore(),
		dns:     newFakeDNS(),
		channel: &fakeChannel{},
		bus:     &recordingBus{},
	}
	f.store.values[lkgKey] = "v4"

	cloner := &fakeCloner{files: map[string]string{"plugfolio.yaml": "app:\n  internal_port: 8080\n"}}
	log := logger.Nop()

	registry := NewRegistry(
		NewConfigResolver(f.store, "/plugfolio", defaultTestTimeout, log),
		NewBuildOutputExtractor(nil, log),
		NewManifestReader(cloner, "plugfolio.yaml", "", defaultTestTimeout, log).WithWorkRoot(t.TempDir()),
		NewSubdomainProvisioner(f.dns, "Z1", "203.0.113.10", defaultTestTimeout, log),
		NewCommandDispatcher(f.channel, []string{"i-0abc"}, "DeployApp", "", defaultTestTimeout, log),
		NewHealthChecker(time.Second, log).WithTransport(routeTo(srv)),
		NewRollbackRecorder(f.store, "/plugfolio", defaultTestTimeout, log),
	)
	f.runner = NewRunner(registry, f.bus, log)
	return f
}

func builtState(tag string) domain.DeploymentState {
	in := domain.NewDeploymentState()
	in.ExecutionID = "exec-1"
	in.BuildEnvironment = []domain.EnvironmentVariable{{Name: "IMAGE_TAG", Value: tag}}
	return in
}

func TestRunner_HealthyDeployRecordsRelease(t *testing.T) {
	f := newPipelineFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dave.plugfolio.io", r.Host)
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	out, err := f.runner.Run(context.Background(), builtState("v5"))
	require.NoError(t, err)

	assert.Equal(t, "dave.plugfolio.io", out.Subdomain)
	assert.Equal(t, "8080", out.InternalPort)
	assert.Equal(t, domain.DeploymentSuccess, out.Status)
	assert.Equal(t, "v5", f.store.value(lkgKey))

	require.Len(t, f.channel.calls, 1)
	assert.Equal(t, []string{"8080"}, f.channel.calls[0].params["InternalPort"])
	assert.Equal(t, []string{"v5"}, f.channel.calls[0].params["DockerImageTag"])
	assert.Equal(t, []string{"v4"}, f.channel.calls[0].params["LastKnownGoodTag"])
}

func TestRunner_UnhealthyDeployKeepsPreviousRelease(t *testing.T) {
	f := newPipelineFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	out, err := f.runner.Run(context.Background(), builtState("v5"))
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.Contains(t, out.Message, "502")
	assert.Equal(t, "v4", f.store.value(lkgKey))
}

func TestRunner_HaltsOnFatalError(t *testing.T) {
	f := newPipelineFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	delete(f.store.values, "/plugfolio/RootDomain")

	out, err := f.runner.Run(context.Background(), builtState("v5"))
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)

	assert.Equal(t, domain.DeploymentFailure, out.Status)
	assert.Empty(t, f.channel.calls)
	assert.Zero(t, f.dns.calls)
	assert.Equal(t, "v4", f.store.value(lkgKey))

	assert.Equal(t, []string{
		domain.EventStageStarted,
		domain.EventStageFinished,
		domain.EventPipelineFinished,
	}, f.bus.topics())

	finished := f.bus.events[1].event.(domain.EventStageFinishedPayload)
	assert.Equal(t, StageResolveConfig, finished.Stage)
	assert.Equal(t, domain.OutcomeFailed, finished.Outcome)
	assert.Equal(t, "ConfigurationMissing", finished.ErrorKind)
}

func TestRunner_PublishesHealthOutcome(t *testing.T) {
	f := newPipelineFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := f.runner.Run(context.Background(), builtState("v5"))
	require.NoError(t, err)

	outcomes := map[string]string{}
	for _, e := range f.bus.events {
		if p, ok := e.event.(domain.EventStageFinishedPayload); ok {
			outcomes[p.Stage] = p.Outcome
			assert.Equal(t, "exec-1", p.ExecutionID)
		}
	}

	assert.Len(t, outcomes, 7)
	assert.Equal(t, domain.OutcomeHealthy, outcomes[StageCheckHealth])
	assert.Equal(t, domain.OutcomeOK, outcomes[StageRecordRelease])

	last := f.bus.events[len(f.bus.events)-1]
	assert.Equal(t, domain.EventPipelineFinished, last.topic)
	assert.Equal(t, domain.DeploymentSuccess, last.event.(domain.EventPipelineFinishedPayload).State.Status)
}

func TestRunner_RunStage(t *testing.T) {
	f := newPipelineFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	in := dispatchInput()
	in.Subdomain = ""
	in.RootDomain = "plugfolio.io"

	out, err := f.runner.RunStage(context.Background(), StageProvisionSubdomain, in)
	require.NoError(t, err)
	assert.Equal(t, "dave.plugfolio.io", out.Subdomain)
	assert.Equal(t, []string{domain.EventStageStarted, domain.EventStageFinished}, f.bus.topics())

	_, err = f.runner.RunStage(context.Background(), "deploy-everything", in)
	assert.ErrorIs(t, err, domain.ErrUnknownStage)
}
