// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package twar

// Ring is a bounded circular log. It grows by appending until it holds
// [capacity] entries, after which every push overwrites the oldest entry.
type Ring[T any] struct {
	Data     []T
	Head     int // most recently written slot
	capacity int
}

func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{
		Data:     make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push writes [v] and returns the slot it was written to.
func (r *Ring[T]) Push(v T) int {
	if len(r.Data) < r.capacity {
		r.Data = append(r.Data, v)
		r.Head = len(r.Data) - 1
		return r.Head
	}
	r.Head = (r.Head + 1) % r.capacity
	r.Data[r.Head] = v
	return r.Head
}

// Latest returns the most recently written entry.
func (r *Ring[T]) Latest() (T, bool) {
	if len(r.Data) == 0 {
		var zero T
		return zero, false
	}
	return r.Data[r.Head], true
}

// Oldest returns the slot of the oldest surviving entry: one past the head
// once the ring has wrapped, the first slot before that.
func (r *Ring[T]) Oldest() int {
	if r.Full() {
		return (r.Head + 1) % len(r.Data)
	}
	return 0
}

func (r *Ring[T]) At(i int) T {
	return r.Data[i]
}

func (r *Ring[T]) Full() bool {
	return len(r.Data) == r.capacity
}

func (r *Ring[T]) Len() int {
	return len(r.Data)
}

func (r *Ring[T]) Cap() int {
	return r.capacity
}
