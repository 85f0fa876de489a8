package router

import (
	"context"
	"log/slog"
	"sync"
)

// Fan copies every value from input to each subscriber. Subscriber channels
// are closed when the input is exhausted or the context ends.
type Fan[T any] struct {
	debug   bool
	name    string
	mu      sync.Mutex
	input   <-chan T
	outputs map[string]chan T
}

func NewFan[T any](name string, input <-chan T) *Fan[T] {
	return &Fan[T]{
		name:    name,
		input:   input,
		outputs: make(map[string]chan T),
	}
}

func (f *Fan[T]) SetDebug(debug bool) {
	f.debug = debug
}

func (f *Fan[T]) Subscribe(client string) <-chan T {
	if f.debug {
		slog.Debug("subscribing to fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; ok {
		panic("client already subscribed")
	}
	c := make(chan T, 1)
	f.outputs[client] = c
	return c
}

func (f *Fan[T]) Run(ctx context.Context) error {
	defer f.closeAll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-f.input:
			if !ok {
				return nil
			}
			if f.debug {
				slog.Debug("fan received value", "fan", f.name, "value", v)
			}
			if !f.send(ctx, v) {
				return nil
			}
		}
	}
}

func (f *Fan[T]) send(ctx context.Context, v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		select {
		case <-ctx.Done():
			return false
		case ch <- v:
		}
		if f.debug {
			slog.Debug("fan sent value", "subscriber", k, "fan", f.name, "value", v)
		}
	}
	return true
}

func (f *Fan[T]) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		close(ch)
		delete(f.outputs, k)
	}
}
