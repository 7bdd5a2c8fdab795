package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

const DefaultHealthTimeout = 5 * time.Second

// HealthChecker probes http://{subdomain}/health once. An unhealthy
// service is a failure status, not an error.
type HealthChecker struct {
	client *http.Client
	log    logger.Logger
}

func NewHealthChecker(timeout time.Duration, log logger.Logger) *HealthChecker {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}

	return &HealthChecker{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// WithTransport replaces the transport used for probes.
func (h *HealthChecker) WithTransport(rt http.RoundTripper) *HealthChecker {
	h.client.Transport = rt
	return h
}

func (h *HealthChecker) Name() string { return StageCheckHealth }

func (h *HealthChecker) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	out := in

	if in.Subdomain == "" {
		out.Status = domain.DeploymentFailure
		out.Message = "Subdomain not found in state"
		return out, nil
	}

	if err := h.probe(ctx, "http://"+in.Subdomain+"/health"); err != nil {
		h.log.Warn("health check failed", "subdomain", in.Subdomain, "error", err)
		out.Status = domain.DeploymentFailure
		out.Message = err.Error()
		return out, nil
	}

	h.log.Info("health check passed", "subdomain", in.Subdomain)
	out.Status = domain.DeploymentSuccess
	out.Message = ""
	return out, nil
}

func (h *HealthChecker) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("Health check failed: %v", err)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			// the run's own deadline can expire before the probe timeout
			if ctx.Err() != nil {
				return fmt.Errorf("Health check failed: run deadline exceeded after %s", time.Since(start).Round(time.Millisecond))
			}
			return fmt.Errorf("Health check failed: timed out after %s", h.client.Timeout)
		}
		return fmt.Errorf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Health check failed with status code %d", resp.StatusCode)
	}

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
