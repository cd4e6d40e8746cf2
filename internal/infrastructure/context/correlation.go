package context

import "context"

type contextKey string

const (
	// CorrelationIDKey carries the chi request id through a sync run.
	CorrelationIDKey contextKey = "correlation_id"
	// UserEmailKey carries the authenticated caller's email, when known.
	UserEmailKey contextKey = "user_email"
)

// WithCorrelationID returns a copy of ctx carrying correlationID.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID returns the correlation id in ctx or "".
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserEmail returns a copy of ctx carrying the caller's email.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailKey, email)
}

// GetUserEmail returns the caller's email in ctx or "".
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}
