// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events dispatches vault notifications to subscribers keyed by the
// notification's type.
package events

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

type Listener func(ctx context.Context, event any) error

// Typed adapts a handler of one concrete event type to a Listener.
func Typed[T any](fn func(ctx context.Context, event T) error) Listener {
	return func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("invalid event type %T", event)
		}
		return fn(ctx, typed)
	}
}

type Bus struct {
	lock      sync.RWMutex
	listeners map[reflect.Type][]Listener
}

func NewBus() *Bus {
	return &Bus{
		listeners: make(map[reflect.Type][]Listener),
	}
}

// Subscribe registers [listener] for events of the same type as [event].
func (b *Bus) Subscribe(event any, listener Listener) *Bus {
	b.lock.Lock()
	defer b.lock.Unlock()

	eventType := reflect.TypeOf(event)
	b.listeners[eventType] = append(b.listeners[eventType], listener)
	return b
}

// Emit calls every listener subscribed to the type of [event] in
// subscription order and stops at the first error. Events nobody listens to
// are dropped.
func (b *Bus) Emit(ctx context.Context, event any) error {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for _, listener := range b.listeners[reflect.TypeOf(event)] {
		if err := listener(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Recorder keeps every event it receives. It is used to collect the
// notifications of a block.
type Recorder struct {
	lock   sync.Mutex
	events []any
}

func (r *Recorder) Emit(_ context.Context, event any) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.events = append(r.events, event)
	return nil
}

// Drain returns the recorded events and forgets them.
func (r *Recorder) Drain() []any {
	r.lock.Lock()
	defer r.lock.Unlock()

	events := r.events
	r.events = nil
	return events
}
