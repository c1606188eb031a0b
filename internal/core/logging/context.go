package logging

import "context"

type contextKey string

const (
	changeKey contextKey = "change"
	rootIDKey contextKey = "root_id"
)

// WithChange adds a change number to the context.
func WithChange(ctx context.Context, change string) context.Context {
	return context.WithValue(ctx, changeKey, change)
}

// WithRootID adds a thread root ID to the context.
func WithRootID(ctx context.Context, rootID string) context.Context {
	return context.WithValue(ctx, rootIDKey, rootID)
}

// GetChange retrieves the change number from the context.
// Returns empty string if not present.
func GetChange(ctx context.Context) string {
	if v, ok := ctx.Value(changeKey).(string); ok {
		return v
	}
	return ""
}

// GetRootID retrieves the thread root ID from the context.
// Returns empty string if not present.
func GetRootID(ctx context.Context) string {
	if v, ok := ctx.Value(rootIDKey).(string); ok {
		return v
	}
	return ""
}
