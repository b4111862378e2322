package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ServiceLogger writes one structured record per service operation.
type ServiceLogger struct {
	logger *slog.Logger
}

type LogConfig struct {
	Service   string
	Component string
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
	}
}

// outcome classifies err into a log level and a short status label.
func outcome(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelInfo, "success"
	case IsNotFound(err):
		return slog.LevelInfo, "not_found"
	case IsValidation(err), IsBusinessRule(err):
		return slog.LevelWarn, "rejected"
	case IsUnauthorized(err), IsForbidden(err):
		return slog.LevelWarn, "denied"
	case errors.Is(err, ErrAttemptTimeExpired), errors.Is(err, ErrAttemptNotActive):
		return slog.LevelInfo, "attempt_closed"
	case IsConflict(err):
		return slog.LevelWarn, "conflict"
	case errors.Is(err, ErrCodeServerUnavailable), errors.Is(err, ErrCodeServerBadResponse):
		return slog.LevelError, "code_server"
	default:
		return slog.LevelError, "error"
	}
}

// errorAttrs adds the structured details carried by typed service errors.
func errorAttrs(attrs []slog.Attr, err error) []slog.Attr {
	attrs = append(attrs, slog.String("error", err.Error()))

	var verrs ValidationErrors
	var rule *BusinessRuleError
	var perm *PermissionError
	switch {
	case errors.As(err, &verrs):
		fields := make([]string, 0, len(verrs))
		for _, v := range verrs {
			fields = append(fields, v.Field)
		}
		attrs = append(attrs, slog.String("invalid_fields", strings.Join(fields, ",")))
	case errors.As(err, &rule):
		attrs = append(attrs, slog.String("rule", rule.Rule))
	case errors.As(err, &perm):
		attrs = append(attrs,
			slog.String("action", perm.Action),
			slog.String("reason", perm.Reason))
	}
	return attrs
}

// ===== OPERATION SCOPES =====

// ContextualLogger times one operation and logs its result.
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    uint
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, userID uint) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID uint, resourceType string, err error) {
	level, status := outcome(err)
	attrs := []slog.Attr{
		slog.String("operation", cl.operation),
		slog.Uint64("user_id", uint64(cl.userID)),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", time.Since(cl.startTime)),
	}
	if err != nil {
		attrs = errorAttrs(attrs, err)
	}
	cl.logger.logger.LogAttrs(cl.ctx, level, cl.operation+" "+status, attrs...)
}

// ===== AUDIT =====

type AuditEventType string

const (
	AuditEventCreate AuditEventType = "create"
	AuditEventUpdate AuditEventType = "update"
	AuditEventDelete AuditEventType = "delete"
)

func (cl *ContextualLogger) LogAudit(eventType AuditEventType, resourceID uint, resourceType string, oldValue, newValue interface{}) {
	attrs := []slog.Attr{
		slog.String("event_type", string(eventType)),
		slog.String("action", cl.operation),
		slog.Uint64("user_id", uint64(cl.userID)),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.String("resource_type", resourceType),
	}
	if oldValue != nil {
		attrs = append(attrs, slog.Any("old_value", redact(oldValue)))
	}
	if newValue != nil {
		attrs = append(attrs, slog.Any("new_value", redact(newValue)))
	}
	cl.logger.logger.LogAttrs(cl.ctx, slog.LevelInfo, "audit: "+cl.operation, attrs...)
}

var sensitiveKeys = []string{"password", "token", "secret", "credential"}

// redact masks map entries whose key looks like a credential.
func redact(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	out := make(map[string]interface{}, len(m))
	for k, val := range m {
		lower := strings.ToLower(k)
		masked := false
		for _, s := range sensitiveKeys {
			if strings.Contains(lower, s) {
				masked = true
				break
			}
		}
		if masked {
			out[k] = "[REDACTED]"
		} else {
			out[k] = redact(val)
		}
	}
	return out
}
