// Package http
package http

import (
	"net/http"

	"plugfolio-deployer/internal/adapters/http/middleware"
	"plugfolio-deployer/internal/config"
	"plugfolio-deployer/internal/logger"
)

type RouterDeps struct {
	WsRuns http.HandlerFunc

	Webhook *WebhookHandler
	Stage   *StageHandler
	Run     *RunHandler

	Metrics http.Handler
	Log     logger.Logger
}

func NewRouter(cfg *config.Config, deps *RouterDeps) http.Handler {
	mux := http.NewServeMux()

	globalMw := middleware.New()
	globalMw.Use(middleware.Logging(deps.Log))
	globalMw.Use(middleware.CORS(cfg))

	apiStack := middleware.New()
	apiStack.Use(middleware.JWT(cfg))

	webhookStack := middleware.New()
	webhookStack.Use(middleware.WebhookSignature(cfg.WebhookSecret))

	// HEALTH
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// METRICS
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	// WEBSOCKET
	mux.HandleFunc("GET /ws/runs", deps.WsRuns)

	// WEBHOOKS
	mux.Handle("POST /webhooks/push", webhookStack.ThenFunc(deps.Webhook.Push))

	// STAGES
	mux.Handle("GET /stages", apiStack.ThenFunc(deps.Stage.Index))
	mux.Handle("POST /stages/{name}", apiStack.ThenFunc(deps.Stage.Run))

	// RUNS
	mux.Handle("GET /runs/latest", apiStack.ThenFunc(deps.Run.Latest))

	return globalMw.Apply(mux)
}
