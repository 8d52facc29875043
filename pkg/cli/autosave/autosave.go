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

// Package autosave coalesces rapid edits of a note into a single commit
// after a quiet period.
package autosave

import (
	"sync"
	"time"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/pkg/errors"
)

// DefaultDelay is the quiet period after the last edit before a commit
const DefaultDelay = 500 * time.Millisecond

// CommitFunc persists a draft
type CommitFunc func(draft database.Note) error

// Saver is a cancellable timer task. Each Schedule replaces the pending
// draft and restarts the timer. Commits never run concurrently.
type Saver struct {
	delay  time.Duration
	commit CommitFunc

	// OnError receives failures of timer-driven commits. Failures of Flush
	// are returned to its caller instead.
	OnError func(error)

	mu      sync.Mutex
	timer   *time.Timer
	pending *database.Note
	gen     uint64
	closed  bool

	commitMu sync.Mutex
}

// New returns a saver that commits drafts with the given function after
// delay has passed without a new edit.
func New(delay time.Duration, commit CommitFunc) *Saver {
	return &Saver{
		delay:  delay,
		commit: commit,
		OnError: func(err error) {
			log.Errorf("autosave failed: %s\n", err.Error())
		},
	}
}

// stop invalidates the pending timer. It must be called with mu held.
func (s *Saver) stop() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Schedule replaces the pending draft and restarts the quiet period
func (s *Saver) Schedule(draft database.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.stop()
	s.pending = &draft

	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(gen)
	})
}

// Pending reports whether a draft is waiting to be committed
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending != nil
}

func (s *Saver) take() *database.Note {
	d := s.pending
	s.pending = nil

	return d
}

// fire commits the draft of the timer with the given generation. commitMu is
// taken before the draft so that a Flush cannot commit a newer draft in
// between.
func (s *Saver) fire(gen uint64) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	// superseded by a later Schedule, Flush or Cancel
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	d := s.take()
	s.mu.Unlock()

	if d == nil {
		return
	}

	if err := s.run(*d); err != nil {
		s.OnError(err)
	}
}

// run commits the draft. It must be called with commitMu held.
func (s *Saver) run(d database.Note) error {
	if d.Title == "" && d.Content == "" {
		log.Debug("skipping autosave of an empty draft\n")
		return nil
	}

	if err := s.commit(d); err != nil {
		return errors.Wrap(err, "committing draft")
	}

	return nil
}

// Flush commits the pending draft immediately, if any. It waits for a
// commit in progress so that the flushed draft is committed last.
func (s *Saver) Flush() error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	s.stop()
	d := s.take()
	s.mu.Unlock()

	if d == nil {
		return nil
	}

	return s.run(*d)
}

// Cancel discards the pending draft. A commit that has already started is
// not interrupted.
func (s *Saver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
	s.pending = nil
}

// Close discards the pending draft and rejects later schedules. It waits for
// a commit in progress to finish.
func (s *Saver) Close() {
	s.mu.Lock()
	s.stop()
	s.pending = nil
	s.closed = true
	s.mu.Unlock()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
}
