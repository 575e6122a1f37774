// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import "sync"

// Ring is a thread-safe fixed-capacity FIFO buffer. Appending to a full
// ring silently evicts the oldest entry — bounded memory is preferred
// over record durability.
type Ring[T any] struct {
	mu      sync.RWMutex
	entries []T
	head    int
	count   int
}

// NewRing creates a ring holding at most capacity entries.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{entries: make([]T, capacity)}
}

// Append inserts v at the tail, evicting the head if the ring is full.
func (r *Ring[T]) Append(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.head] = v
	r.head = (r.head + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

// Snapshot returns a copy of the buffered entries in insertion order,
// oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.count)
	if r.count == 0 {
		return out
	}

	start := 0
	if r.count == len(r.entries) {
		start = r.head
	}
	for i := 0; i < r.count; i++ {
		out[i] = r.entries[(start+i)%len(r.entries)]
	}
	return out
}

// Len returns the number of entries currently buffered.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Clear empties the ring. Entry slots are zeroed so evicted values do
// not linger and delay garbage collection.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	for i := range r.entries {
		r.entries[i] = zero
	}
	r.head = 0
	r.count = 0
}
