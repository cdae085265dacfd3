// Package boterr holds the error kinds shared across the bot: missing
// configuration, failing upstream services and failed chat deliveries.
package boterr

import (
	"fmt"
	"strings"
)

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "configuration error"
	}
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		reason = "missing value"
	}
	if key := strings.TrimSpace(e.Key); key != "" {
		return fmt.Sprintf("configuration error: %s: %s", key, reason)
	}
	return "configuration error: " + reason
}

func MissingConfig(key, hint string) *ConfigError {
	reason := "missing value"
	if hint = strings.TrimSpace(hint); hint != "" {
		reason += " (" + hint + ")"
	}
	return &ConfigError{Key: key, Reason: reason}
}

// CollaboratorError wraps a failure returned by the agent or image service.
// StatusCode is zero when the failure happened before an HTTP response.
type CollaboratorError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *CollaboratorError) Error() string {
	if e == nil {
		return "collaborator error"
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.Service))
	if b.Len() == 0 {
		b.WriteString("collaborator")
	}
	if op := strings.TrimSpace(e.Op); op != "" {
		b.WriteString(" ")
		b.WriteString(op)
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CollaboratorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DeliveryError reports a failed send to a single chat.
type DeliveryError struct {
	ChatID int64
	Kind   string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return "delivery error"
	}
	kind := strings.TrimSpace(e.Kind)
	if kind == "" {
		kind = "message"
	}
	if e.Err == nil {
		return fmt.Sprintf("deliver %s to chat %d failed", kind, e.ChatID)
	}
	return fmt.Sprintf("deliver %s to chat %d: %s", kind, e.ChatID, e.Err.Error())
}

func (e *DeliveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
