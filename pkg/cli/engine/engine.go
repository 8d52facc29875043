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

// Package engine reconciles the local replica of notes against the remote.
//
// A campaign is one sequential pass over the pending deletions and the dirty
// notes. At most one campaign runs at a time and at most one remote request
// is outstanding. Conflicts are settled by last-write-wins; see package
// resolve.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/network"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/pkg/errors"
)

var (
	// ErrCampaignInProgress is returned by Run while another campaign runs
	ErrCampaignInProgress = errors.New("a sync campaign is already in progress")
	// ErrOffline is returned by Run when the remote is unreachable
	ErrOffline = errors.New("offline")
)

// Status is the sync state of a note within the current process
type Status int

const (
	// Idle means the note is not being processed
	Idle Status = iota
	// Syncing means the note is being reconciled
	Syncing
	// Synced means the last reconciliation succeeded
	Synced
	// Error means the last reconciliation failed
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Syncing:
		return "SYNCING"
	case Synced:
		return "SYNCED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Store is the local replica as seen by the engine
type Store interface {
	GetUnsynced() ([]database.Note, error)
	MarkSynced(id string, at time.Time) (bool, error)
	ApplyRemote(remote database.Note, expected time.Time) (bool, error)
	ApplyPulled(remote database.Note) (bool, error)
	RecordFailure(id string, cause error) error
	ClearFailure(id string) error
	Tombstones() ([]database.Tombstone, error)
	ClearTombstone(id string) error
	GetSystem(key string, dest interface{}) (bool, error)
	SetSystem(key string, val interface{}) error
}

// Remote is the remote note collection
type Remote interface {
	Get(ctx context.Context, id string) (*database.Note, error)
	Create(ctx context.Context, n database.Note) error
	Update(ctx context.Context, id string, n database.Note) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, afterUSN int64) (client.ListResp, error)
}

// Connectivity reports whether the remote is reachable
type Connectivity interface {
	Online() bool
}

// Params are the dependencies of an Engine
type Params struct {
	Store   Store
	Remote  Remote
	Network Connectivity
	Clock   clock.Clock
	// Pull enables fetching notes that exist only on the remote at the end
	// of every campaign
	Pull bool
	// OnStatus, if set, is called on every status change
	OnStatus func(id string, s Status)
	// OnCampaign, if set, is called when a triggered campaign finishes
	OnCampaign func(Report, error)
}

// Engine runs sync campaigns and tracks the status of every note
type Engine struct {
	store      Store
	remote     Remote
	network    Connectivity
	clock      clock.Clock
	pull       bool
	onStatus   func(id string, s Status)
	onCampaign func(Report, error)

	mu       sync.Mutex
	statuses map[string]Status
	running  bool
	rerun    context.Context // set by a trigger that arrives during a campaign

	wg sync.WaitGroup
}

// New returns an engine with the given dependencies
func New(p Params) *Engine {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}

	return &Engine{
		store:      p.Store,
		remote:     p.Remote,
		network:    p.Network,
		clock:      c,
		pull:       p.Pull,
		onStatus:   p.OnStatus,
		onCampaign: p.OnCampaign,
		statuses:   map[string]Status{},
	}
}

// Status returns the status of the note with the given id
func (e *Engine) Status(id string) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.statuses[id]
}

// Statuses returns a snapshot of the status of every note the engine has
// processed
func (e *Engine) Statuses() map[string]Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	ret := make(map[string]Status, len(e.statuses))
	for id, s := range e.statuses {
		ret[id] = s
	}

	return ret
}

// Running reports whether a campaign is in progress
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.running
}

func (e *Engine) setStatus(id string, s Status) {
	e.mu.Lock()
	e.statuses[id] = s
	e.mu.Unlock()

	log.Debug("note %s: %s\n", id, s)

	if e.onStatus != nil {
		e.onStatus(id, s)
	}
}

// acquire marks a campaign as running
func (e *Engine) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrCampaignInProgress
	}
	if !e.network.Online() {
		return ErrOffline
	}

	e.running = true

	return nil
}

// release marks the campaign as finished. If a trigger arrived meanwhile and
// the remote is still reachable, it returns the context of that trigger and
// the caller must run another campaign under it.
func (e *Engine) release() (context.Context, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx := e.rerun
	e.rerun = nil

	if ctx == nil || ctx.Err() != nil || !e.network.Online() {
		e.running = false
		return nil, false
	}

	return ctx, true
}

// Run performs a campaign and waits for it to finish. It fails with
// ErrCampaignInProgress instead of overlapping another campaign.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	if err := e.acquire(); err != nil {
		return Report{}, err
	}

	report, err := e.campaign(ctx)

	if next, ok := e.release(); ok {
		e.wg.Add(1)
		go e.loop(next)
	}

	return report, err
}

// Trigger starts a campaign in the background and returns immediately.
// Triggers that arrive while a campaign runs are coalesced into a single
// follow-up campaign.
func (e *Engine) Trigger(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.rerun = ctx
		return
	}
	if !e.network.Online() {
		return
	}

	e.running = true
	e.wg.Add(1)
	go e.loop(ctx)
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	for {
		report, err := e.campaign(ctx)
		if err != nil {
			log.Debug("campaign failed: %s\n", err.Error())
		}
		if e.onCampaign != nil {
			e.onCampaign(report, err)
		}

		next, ok := e.release()
		if !ok {
			return
		}
		ctx = next
	}
}

// Wait blocks until the campaigns started by Trigger have finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Listener returns a network listener that triggers a campaign on every
// offline to online transition. It never blocks.
func (e *Engine) Listener(ctx context.Context) network.Listener {
	return func(online bool) {
		if online {
			e.Trigger(ctx)
		}
	}
}

// LastCampaignAt returns when the last campaign finished, or the zero time
func (e *Engine) LastCampaignAt() (time.Time, error) {
	var ts int64
	ok, err := e.store.GetSystem(consts.SystemLastCampaignAt, &ts)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "reading the last campaign time")
	}
	if !ok {
		return time.Time{}, nil
	}

	return database.FromTS(ts), nil
}
