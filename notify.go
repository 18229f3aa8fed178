package serial

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// observers is a set of callbacks. A panicking callback is logged and does
// not keep the others from running.
type observers[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

func (o *observers[T]) subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(id) })
	}
}

func (o *observers[T]) remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

func (o *observers[T]) emit(v T, log zerolog.Logger, event string) {
	o.mu.Lock()
	subs := make([]subscriber[T], len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		var pc panics.Catcher
		pc.Try(func() { s.fn(v) })
		if r := pc.Recovered(); r != nil {
			log.Error().
				Str("event", event).
				Interface("panic", r.Value).
				Msg("subscriber panicked")
		}
	}
}
