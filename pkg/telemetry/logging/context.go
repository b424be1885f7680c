package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// ExecutionIDKey is the context key for a bundle execution's id.
	ExecutionIDKey contextKey = "execution_id"

	// BundleIDKey is the context key for a decision bundle's id.
	BundleIDKey contextKey = "bundle_id"

	// RuleIDKey is the context key for the rule currently being evaluated.
	RuleIDKey contextKey = "rule_id"

	// UserKey is the context key for the user attributed to an action.
	UserKey contextKey = "user"

	// RequestIDKey is the context key for a CLI invocation or API call id.
	RequestIDKey contextKey = "request_id"
)

// WithExecutionID adds a bundle execution id to the context.
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, ExecutionIDKey, executionID)
}

// GetExecutionID retrieves the execution id from the context.
func GetExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(ExecutionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithBundleID adds a decision bundle id to the context.
func WithBundleID(ctx context.Context, bundleID string) context.Context {
	return context.WithValue(ctx, BundleIDKey, bundleID)
}

// GetBundleID retrieves the bundle id from the context.
func GetBundleID(ctx context.Context) string {
	if id, ok := ctx.Value(BundleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRuleID adds the currently-evaluating rule's id to the context.
func WithRuleID(ctx context.Context, ruleID string) context.Context {
	return context.WithValue(ctx, RuleIDKey, ruleID)
}

// GetRuleID retrieves the rule id from the context.
func GetRuleID(ctx context.Context) string {
	if id, ok := ctx.Value(RuleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUser adds a user identifier to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the user identifier from the context.
func GetUser(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// WithRequestID adds a request id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if id := GetExecutionID(ctx); id != "" {
		fields = append(fields, "execution_id", id)
	}
	if id := GetBundleID(ctx); id != "" {
		fields = append(fields, "bundle_id", id)
	}
	if id := GetRuleID(ctx); id != "" {
		fields = append(fields, "rule_id", id)
	}
	if user := GetUser(ctx); user != "" {
		fields = append(fields, "user", user)
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
