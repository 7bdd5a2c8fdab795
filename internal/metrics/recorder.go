// Package metrics exports pipeline counters to Prometheus and keeps the
// latest finished run.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/event"
	"plugfolio-deployer/internal/logger"
	"plugfolio-deployer/internal/storage/snapshot"
)

type EventBus interface {
	Subscribe(topic string, h event.Handler)
}

type Recorder struct {
	registry *prometheus.Registry

	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	pipelineRuns  *prometheus.CounterVec

	runs *snapshot.RunStore
	log  logger.Logger
}

func NewRecorder(runs *snapshot.RunStore, log logger.Logger) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deployer_stage_runs_total",
			Help: "Pipeline stage invocations by outcome.",
		}, []string{"stage", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deployer_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deployer_pipeline_runs_total",
			Help: "Finished pipeline runs by final status.",
		}, []string{"status"}),

		runs: runs,
		log:  log,
	}

	r.registry.MustRegister(
		r.stageRuns,
		r.stageDuration,
		r.pipelineRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

func (r *Recorder) Register(bus EventBus) {
	bus.Subscribe(domain.EventStageFinished, r.onStageFinished)
	bus.Subscribe(domain.EventPipelineFinished, r.onPipelineFinished)
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) onStageFinished(e any) {
	evt, ok := e.(domain.EventStageFinishedPayload)
	if !ok {
		return
	}

	r.stageRuns.WithLabelValues(evt.Stage, evt.Outcome).Inc()
	r.stageDuration.WithLabelValues(evt.Stage).Observe(evt.Duration.Seconds())
}

func (r *Recorder) onPipelineFinished(e any) {
	evt, ok := e.(domain.EventPipelineFinishedPayload)
	if !ok {
		return
	}

	status := string(evt.State.Status)
	if status == "" {
		status = string(domain.DeploymentPending)
	}
	r.pipelineRuns.WithLabelValues(status).Inc()

	if r.runs != nil {
		r.runs.Set(evt)
	}

	r.log.Debug("metrics: pipeline recorded", "execution_id", evt.ExecutionID, "status", status)
}
