package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationMissing   = errors.New("configuration missing")
	ErrManifestUnreadable     = errors.New("manifest unreadable")
	ErrDNSProvisioningFailed  = errors.New("dns provisioning failed")
	ErrInvalidDispatchRequest = errors.New("invalid dispatch request")
	ErrRemoteDispatchFailed   = errors.New("remote dispatch failed")
	ErrHealthCheckFailed      = errors.New("health check failed")
	ErrBuildOutputMissing     = errors.New("build output missing")

	ErrParameterNotFound = errors.New("parameter not found")
	ErrParameterExists   = errors.New("parameter already exists")

	ErrInvalidState  = errors.New("invalid deployment state")
	ErrUnknownStage  = errors.New("unknown stage")
	ErrTriggerFailed = errors.New("trigger failed")
)

// ConfigurationMissingError names the parameter that could not be
// resolved. It matches ErrConfigurationMissing with errors.Is.
type ConfigurationMissingError struct {
	Key string
	Err error
}

func (e *ConfigurationMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration missing: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration missing: %s", e.Key)
}

func (e *ConfigurationMissingError) Is(target error) bool {
	return target == ErrConfigurationMissing
}

func (e *ConfigurationMissingError) Unwrap() error {
	return e.Err
}

// ErrorKind returns the taxonomy name for err, or "Internal" when err
// does not belong to the pipeline taxonomy.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigurationMissing):
		return "ConfigurationMissing"
	case errors.Is(err, ErrManifestUnreadable):
		return "ManifestUnreadable"
	case errors.Is(err, ErrDNSProvisioningFailed):
		return "DnsProvisioningFailed"
	case errors.Is(err, ErrInvalidDispatchRequest):
		return "InvalidDispatchRequest"
	case errors.Is(err, ErrRemoteDispatchFailed):
		return "RemoteDispatchFailed"
	case errors.Is(err, ErrHealthCheckFailed):
		return "HealthCheckFailed"
	case errors.Is(err, ErrBuildOutputMissing):
		return "BuildOutputMissing"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrUnknownStage):
		return "UnknownStage"
	case errors.Is(err, ErrTriggerFailed):
		return "TriggerFailed"
	}
	return "Internal"
}
