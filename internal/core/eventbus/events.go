// Package eventbus provides a typed publish/subscribe event bus used to report
// thread list changes to the views that depend on them.
package eventbus

import "github.com/colonyops/revthreads/internal/core/config"

// Event names a kind of bus event.
type Event string

// Event names. Keep sorted A-Z.
const (
	EventConfigReloaded        Event = "config.reloaded"
	EventNotificationPublished Event = "notification.published"
	EventThreadDiscarded       Event = "thread.discarded"
	EventThreadListModified    Event = "thread-list.modified"
	EventThreadsSynced         Event = "threads.synced"
)

// Events maps every event name to its payload type.
var Events = map[Event]any{
	EventConfigReloaded:        ConfigReloadedPayload{},
	EventNotificationPublished: NotificationPublishedPayload{},
	EventThreadDiscarded:       ThreadDiscardedPayload{},
	EventThreadListModified:    ThreadListModifiedPayload{},
	EventThreadsSynced:         ThreadsSyncedPayload{},
}

// ThreadDiscardedPayload is emitted after a thread is removed from a list so
// the owner of the authoritative collection can drop it too.
type ThreadDiscardedPayload struct {
	Change string
	RootID string
}

// ThreadListModifiedPayload is emitted when a comment in a thread is saved or
// deleted. Dependent views (diff gutters) refresh the given path.
type ThreadListModifiedPayload struct {
	Change string
	RootID string
	Path   string
}

// ThreadsSyncedPayload is emitted after a list absorbs a new collection.
type ThreadsSyncedPayload struct {
	Change     string
	Structural bool
	Count      int
}

// ConfigReloadedPayload is emitted when configuration is reloaded.
type ConfigReloadedPayload struct {
	Config *config.Config
}

// Level is the severity of a user-facing notification.
type Level string

// Notification levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// NotificationPublishedPayload carries a message meant for the user.
type NotificationPublishedPayload struct {
	Level   Level
	Message string
}
