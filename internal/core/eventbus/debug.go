package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs all bus activity: published events at debug level,
// dropped events as warnings, and subscriber panics as errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		switch p := payload.(type) {
		case ThreadDiscardedPayload:
			e = e.Str("change", p.Change).Str("root_id", p.RootID)
		case ThreadListModifiedPayload:
			e = e.Str("change", p.Change).Str("root_id", p.RootID).Str("path", p.Path)
		case ThreadsSyncedPayload:
			e = e.Str("change", p.Change).Bool("structural", p.Structural).Int("count", p.Count)
		}
		e.Msg("event fired")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
