package eventbus

import "sync"

// hooks holds lifecycle callbacks. They run on the goroutine that triggered
// them: the publisher for OnPublish/OnDrop, the subscriber for OnSubscribe,
// and the dispatch loop for OnPanic.
type hooks struct {
	mu          sync.RWMutex
	onPublish   []func(Event, any)
	onDrop      []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

// OnPublish registers a hook that fires after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onPublish = append(bus.hooks.onPublish, fn)
	bus.hooks.mu.Unlock()
}

// OnDrop registers a hook that fires when an event is dropped because the
// buffer is full.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onDrop = append(bus.hooks.onDrop, fn)
	bus.hooks.mu.Unlock()
}

// OnSubscribe registers a hook that fires after a subscriber is registered.
func (bus *EventBus) OnSubscribe(fn func(Event)) {
	bus.hooks.mu.Lock()
	bus.hooks.onSubscribe = append(bus.hooks.onSubscribe, fn)
	bus.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a subscriber panics.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onPanic = append(bus.hooks.onPanic, fn)
	bus.hooks.mu.Unlock()
}

func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		forEach(&bus.hooks.mu, &bus.hooks.onPublish, func(fn func(Event, any)) { fn(event, payload) })
	default:
		forEach(&bus.hooks.mu, &bus.hooks.onDrop, func(fn func(Event, any)) { fn(event, payload) })
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	forEach(&bus.hooks.mu, &bus.hooks.onSubscribe, func(fn func(Event)) { fn(event) })
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	forEach(&bus.hooks.mu, &bus.hooks.onPanic, func(fn func(Event, any, any)) {
		defer func() { recover() }() //nolint:errcheck
		fn(event, payload, recovered)
	})
}

// forEach snapshots a hook slice under the read lock and calls each hook
// without holding it, so hooks may register further hooks.
func forEach[F any](mu *sync.RWMutex, fns *[]F, call func(F)) {
	mu.RLock()
	snapshot := make([]F, len(*fns))
	copy(snapshot, *fns)
	mu.RUnlock()

	for _, fn := range snapshot {
		call(fn)
	}
}
