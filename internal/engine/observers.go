package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// Observer receives engine events on the dispatcher goroutine. Implementations must not
// call back into the engine's mutating methods.
type Observer interface {
	OnEvent(ev model.Event)
}

// SnapshotObserver additionally receives the per-second snapshot.
type SnapshotObserver interface {
	Observer
	OnSnapshot(s model.Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev model.Event)

func (f ObserverFunc) OnEvent(ev model.Event) { f(ev) }

type notice struct {
	event    *model.Event
	snapshot *model.Snapshot
}

// Subscribe adds an observer. Safe to call at any time.
func (e *Engine) Subscribe(o Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

// emit queues an event without blocking; a full queue drops it.
func (e *Engine) emit(ev model.Event) {
	select {
	case e.notices <- notice{event: &ev}:
	default:
		e.recorder.IncDroppedEvent()
		log.Warn().Str("kind", string(ev.Kind)).Str("to", ev.To).Msg("event queue full, dropping event")
	}
}

func (e *Engine) publish(s model.Snapshot) {
	s = copySnapshot(s)
	select {
	case e.notices <- notice{snapshot: &s}:
	default:
		e.recorder.IncDroppedEvent()
		log.Warn().Msg("event queue full, dropping snapshot")
	}
}

func (e *Engine) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return
		case n := <-e.notices:
			e.deliver(n)
		}
	}
}

// drain delivers whatever is already queued, then returns.
func (e *Engine) drain() {
	for {
		select {
		case n := <-e.notices:
			e.deliver(n)
		default:
			return
		}
	}
}

func (e *Engine) deliver(n notice) {
	e.obsMu.RLock()
	observers := append([]Observer(nil), e.observers...)
	e.obsMu.RUnlock()

	for _, o := range observers {
		switch {
		case n.event != nil:
			o.OnEvent(*n.event)
		case n.snapshot != nil:
			if so, ok := o.(SnapshotObserver); ok {
				so.OnSnapshot(*n.snapshot)
			}
		}
	}
}
