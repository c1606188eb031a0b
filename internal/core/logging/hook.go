package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts change and root_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if change := GetChange(ctx); change != "" {
		e.Str("change", change)
	}

	if rootID := GetRootID(ctx); rootID != "" {
		e.Str("root_id", rootID)
	}
}
