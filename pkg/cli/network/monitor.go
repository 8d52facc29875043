/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package network tracks connectivity to the remote. Monitor is the single
// source of truth for whether the process is online.
package network

import (
	"sync"
)

// Listener receives connectivity transitions. It is called with true on an
// offline to online transition and with false on the reverse.
type Listener func(online bool)

type subscription struct {
	id int
	fn Listener
}

// Monitor holds the online state and notifies subscribers on transitions.
// Reports of an unchanged state are ignored. Listeners are called in
// transition order on a dispatcher goroutine, never on the reporter's.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	closed    bool
	nextID    int
	listeners []subscription
	pending   []bool

	notify chan struct{}
	done   chan struct{}
}

// NewMonitor returns a monitor in the given initial state
func NewMonitor(initial bool) *Monitor {
	m := &Monitor{
		online: initial,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	go m.dispatch()

	return m
}

// Online returns the current state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// Report records the latest connectivity signal. It does not block on
// listeners.
func (m *Monitor) Report(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.online == online {
		return
	}

	m.online = online
	m.pending = append(m.pending, online)

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Subscribe registers a listener for transitions and returns a function that
// unregisters it.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return func() {}
	}

	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		for i, s := range m.listeners {
			if s.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close unsubscribes all listeners and stops delivering transitions. It
// waits for an in-flight delivery to return, so it must not be called from
// a listener.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	m.closed = true
	m.listeners = nil
	m.pending = nil
	close(m.notify)
	m.mu.Unlock()

	<-m.done
}

func (m *Monitor) next() (bool, []subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return false, nil, false
	}

	ev := m.pending[0]
	m.pending = m.pending[1:]

	ls := make([]subscription, len(m.listeners))
	copy(ls, m.listeners)

	return ev, ls, true
}

func (m *Monitor) dispatch() {
	defer close(m.done)

	for range m.notify {
		for {
			online, ls, ok := m.next()
			if !ok {
				break
			}

			for _, s := range ls {
				s.fn(online)
			}
		}
	}
}
