package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus delivers published events to subscribers on a single dispatch
// goroutine started by Start. Publishing never blocks; when the buffer is
// full the event is dropped and OnDrop hooks fire.
type EventBus struct {
	ch chan envelope

	mu   sync.RWMutex
	subs map[Event][]func(any)

	hooks hooks
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled. Events still buffered when
// ctx is cancelled are delivered before Start returns.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-bus.ch:
					bus.dispatch(env)
				default:
					return
				}
			}
		}
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

// PublishThreadDiscarded enqueues a thread.discarded event.
func (bus *EventBus) PublishThreadDiscarded(p ThreadDiscardedPayload) {
	bus.send(EventThreadDiscarded, p)
}

// SubscribeThreadDiscarded registers fn for thread.discarded events.
func (bus *EventBus) SubscribeThreadDiscarded(fn func(ThreadDiscardedPayload)) {
	bus.subscribe(EventThreadDiscarded, func(p any) { fn(p.(ThreadDiscardedPayload)) })
}

// PublishThreadListModified enqueues a thread-list.modified event.
func (bus *EventBus) PublishThreadListModified(p ThreadListModifiedPayload) {
	bus.send(EventThreadListModified, p)
}

// SubscribeThreadListModified registers fn for thread-list.modified events.
func (bus *EventBus) SubscribeThreadListModified(fn func(ThreadListModifiedPayload)) {
	bus.subscribe(EventThreadListModified, func(p any) { fn(p.(ThreadListModifiedPayload)) })
}

// PublishThreadsSynced enqueues a threads.synced event.
func (bus *EventBus) PublishThreadsSynced(p ThreadsSyncedPayload) {
	bus.send(EventThreadsSynced, p)
}

// SubscribeThreadsSynced registers fn for threads.synced events.
func (bus *EventBus) SubscribeThreadsSynced(fn func(ThreadsSyncedPayload)) {
	bus.subscribe(EventThreadsSynced, func(p any) { fn(p.(ThreadsSyncedPayload)) })
}

// PublishConfigReloaded enqueues a config.reloaded event.
func (bus *EventBus) PublishConfigReloaded(p ConfigReloadedPayload) {
	bus.send(EventConfigReloaded, p)
}

// SubscribeConfigReloaded registers fn for config.reloaded events.
func (bus *EventBus) SubscribeConfigReloaded(fn func(ConfigReloadedPayload)) {
	bus.subscribe(EventConfigReloaded, func(p any) { fn(p.(ConfigReloadedPayload)) })
}

// PublishNotificationPublished enqueues a notification.published event.
func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

// SubscribeNotificationPublished registers fn for notification.published events.
func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}
