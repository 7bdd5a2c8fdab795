package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugfolio-deployer/internal/config"
	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

func echoSubject(w http.ResponseWriter, r *http.Request) {
	sub, _ := GetSubject(r.Context())
	w.Write([]byte(sub))
}

func TestJWT(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s3cret"}
	h := New().Use(JWT(cfg)).ThenFunc(echoSubject)

	token, err := domain.IssueToken("s3cret", "orchestrator", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, status: http.StatusOK, body: "orchestrator"},
		{name: "query", setup: func(r *http.Request) { r.URL.RawQuery = "token=" + token }, status: http.StatusOK, body: "orchestrator"},
		{name: "missing", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, status: http.StatusUnauthorized},
		{name: "wrong scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/stages/read-manifest", nil)
			tt.setup(r)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestWebhookSignature(t *testing.T) {
	body := `{"repository":{"clone_url":"https://github.com/dave/my-app.git"}}`

	h := New().Use(WebhookSignature("hook")).ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := io.ReadAll(r.Body)
		w.Write(got)
	})

	r := httptest.NewRequest(http.MethodPost, "/webhooks/push", strings.NewReader(body))
	r.Header.Set(SignatureHeader, Sign("hook", []byte(body)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.String())

	r = httptest.NewRequest(http.MethodPost, "/webhooks/push", strings.NewReader(body))
	r.Header.Set(SignatureHeader, Sign("other", []byte(body)))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignature_OversizedBody(t *testing.T) {
	h := New().Use(WebhookSignature("hook")).ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	body := bytes.Repeat([]byte("a"), maxSignedBody+1)
	r := httptest.NewRequest(http.MethodPost, "/webhooks/push", bytes.NewReader(body))
	r.Header.Set(SignatureHeader, Sign("hook", body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	body = body[:maxSignedBody]
	r = httptest.NewRequest(http.MethodPost, "/webhooks/push", bytes.NewReader(body))
	r.Header.Set(SignatureHeader, Sign("hook", body))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignature_DisabledWithoutSecret(t *testing.T) {
	h := New().Use(WebhookSignature("")).ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/push", strings.NewReader("{}")))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"https://dash.plugfolio.io"}}
	h := New().Use(CORS(cfg)).ThenFunc(func(w http.ResponseWriter, r *http.Request) {})

	r := httptest.NewRequest(http.MethodOptions, "/runs/latest", nil)
	r.Header.Set("Origin", "https://dash.plugfolio.io")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.plugfolio.io", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	r.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogging_SetsRequestID(t *testing.T) {
	h := New().Use(Logging(logger.Nop())).ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
