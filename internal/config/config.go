// Package config
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Address   string
	LogLevel  string
	LogFormat string

	AWSRegion string

	ParameterNamespace string
	ParameterBackend   string
	DNSBackend         string
	DispatchBackend    string
	ExecutionBackend   string
	SQLitePath         string

	HostedZoneID      string
	DeployHostIP      string
	TargetInstanceIDs []string
	DocumentName      string
	BucketName        string
	StateMachineARN   string

	SSHUser       string
	SSHKeyPath    string
	SSHKnownHosts string
	SSHScriptDir  string

	JWTSecret      string
	WebhookSecret  string
	AllowedOrigins []string

	CloneBranch         string
	ManifestFile        string
	DefaultInternalPort string
	BuildOutputKeys     []string

	HealthTimeout    time.Duration
	CloneTimeout     time.Duration
	RemoteTimeout    time.Duration
	ExecutionTimeout time.Duration
}

const (
	BackendSSM     = "ssm"
	BackendSQLite  = "sqlite"
	BackendRoute53 = "route53"
	BackendSSH     = "ssh"
	BackendSFN     = "sfn"
	BackendLocal   = "local"
)

func Load() *Config {
	godotenv.Load()

	return &Config{
		Address:   getString("HTTP_ADDR", ":8080"),
		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),

		AWSRegion: getString("AWS_REGION", "us-east-1"),

		ParameterNamespace: getString("PARAMETER_NAMESPACE", "/plugfolio"),
		ParameterBackend:   getString("PARAMETER_BACKEND", BackendSSM),
		DNSBackend:         getString("DNS_BACKEND", BackendRoute53),
		DispatchBackend:    getString("DISPATCH_BACKEND", BackendSSM),
		ExecutionBackend:   getString("EXECUTION_BACKEND", BackendLocal),
		SQLitePath:         getString("SQLITE_PATH", "plugfolio.db"),

		HostedZoneID:      os.Getenv("HOSTED_ZONE_ID"),
		DeployHostIP:      os.Getenv("DEPLOY_HOST_IP"),
		TargetInstanceIDs: getList("TARGET_INSTANCE_IDS", nil),
		DocumentName:      os.Getenv("COMMAND_DOCUMENT_NAME"),
		BucketName:        os.Getenv("ARTIFACT_BUCKET_NAME"),
		StateMachineARN:   os.Getenv("STATE_MACHINE_ARN"),

		SSHUser:       getString("SSH_USER", "deploy"),
		SSHKeyPath:    os.Getenv("SSH_KEY_PATH"),
		SSHKnownHosts: os.Getenv("SSH_KNOWN_HOSTS"),
		SSHScriptDir:  getString("SSH_SCRIPT_DIR", "/opt/plugfolio/documents"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", nil),

		CloneBranch:         os.Getenv("CLONE_BRANCH"),
		ManifestFile:        getString("MANIFEST_FILE", "plugfolio.yaml"),
		DefaultInternalPort: getString("DEFAULT_INTERNAL_PORT", "3000"),
		BuildOutputKeys:     getList("BUILD_OUTPUT_KEYS", []string{"IMAGE_TAG"}),

		HealthTimeout:    getDuration("HEALTH_TIMEOUT", 5*time.Second),
		CloneTimeout:     getDuration("CLONE_TIMEOUT", 30*time.Second),
		RemoteTimeout:    getDuration("REMOTE_TIMEOUT", 30*time.Second),
		ExecutionTimeout: getDuration("EXECUTION_TIMEOUT", 5*time.Minute),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
