package eventbus

import "fmt"

// NotificationRouter maps thread list events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeThreadDiscarded(func(p ThreadDiscardedPayload) {
		r.notifyf(LevelInfo, "thread %s discarded", p.RootID)
	})

	r.bus.SubscribeThreadListModified(func(p ThreadListModifiedPayload) {
		if p.Path == "" {
			r.notifyf(LevelInfo, "thread %s modified", p.RootID)
			return
		}
		r.notifyf(LevelInfo, "thread %s modified in %s", p.RootID, p.Path)
	})

	r.bus.SubscribeThreadsSynced(func(p ThreadsSyncedPayload) {
		if !p.Structural {
			return
		}
		if p.Count == 0 {
			r.notifyf(LevelWarning, "change %s has no comment threads", p.Change)
			return
		}
		r.notifyf(LevelInfo, "change %s now has %d threads", p.Change, p.Count)
	})
}

func (r *NotificationRouter) notifyf(level Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
