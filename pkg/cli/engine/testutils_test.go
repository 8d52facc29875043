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

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/network"
	"github.com/dnote/notesync/pkg/cli/store"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/pkg/errors"
)

// fakeRemote is an in-memory remote note collection that records calls
type fakeRemote struct {
	mu    sync.Mutex
	notes map[string]database.Note
	// usns is the sequence number of the last write of every note
	usns   map[string]int64
	maxUSN int64
	calls  []string
	// fail maps a call such as "get 42" or an operation such as "create"
	// to the error it returns
	fail map[string]error
	// before, if set, runs ahead of every call
	before func(call string)
}

func newFakeRemote(notes ...database.Note) *fakeRemote {
	r := &fakeRemote{
		notes: map[string]database.Note{},
		usns:  map[string]int64{},
		fail:  map[string]error{},
	}
	for _, n := range notes {
		r.write(n)
	}

	return r
}

// write stores the note with the next sequence number. The caller must hold
// mu unless r is not shared yet.
func (r *fakeRemote) write(n database.Note) {
	r.maxUSN++
	r.notes[n.ID] = n
	r.usns[n.ID] = r.maxUSN
}

// put stores a note as if another client had written it
func (r *fakeRemote) put(n database.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.write(n)
}

func (r *fakeRemote) record(op, id string) error {
	call := op
	if id != "" {
		call = fmt.Sprintf("%s %s", op, id)
	}

	r.mu.Lock()
	hook := r.before
	r.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)
	if err, ok := r.fail[call]; ok {
		return err
	}
	if err, ok := r.fail[op]; ok {
		return err
	}

	return nil
}

func (r *fakeRemote) setBefore(fn func(call string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.before = fn
}

func (r *fakeRemote) setFail(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.fail, key)
		return
	}
	r.fail[key] = err
}

func (r *fakeRemote) getCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ret := make([]string, len(r.calls))
	copy(ret, r.calls)

	return ret
}

func (r *fakeRemote) resetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
}

func (r *fakeRemote) note(id string) (database.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	return n, ok
}

func (r *fakeRemote) Get(ctx context.Context, id string) (*database.Note, error) {
	if err := r.record("get", id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}

	return &n, nil
}

func (r *fakeRemote) Create(ctx context.Context, n database.Note) error {
	if err := r.record("create", n.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.write(n)
	return nil
}

func (r *fakeRemote) Update(ctx context.Context, id string, n database.Note) error {
	if err := r.record("update", id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = id
	r.write(n)
	return nil
}

func (r *fakeRemote) Delete(ctx context.Context, id string) error {
	if err := r.record("delete", id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.notes, id)
	delete(r.usns, id)
	return nil
}

func (r *fakeRemote) List(ctx context.Context, afterUSN int64) (client.ListResp, error) {
	if err := r.record("list", ""); err != nil {
		return client.ListResp{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ret := client.ListResp{Notes: []database.Note{}, MaxUSN: afterUSN}
	for id, n := range r.notes {
		if r.usns[id] > afterUSN {
			ret.Notes = append(ret.Notes, n)
		}
	}
	sort.Slice(ret.Notes, func(i, j int) bool { return r.usns[ret.Notes[i].ID] < r.usns[ret.Notes[j].ID] })

	if r.maxUSN > afterUSN {
		ret.MaxUSN = r.maxUSN
	}

	return ret, nil
}

var errUnreachable = errors.New("connection refused")

type testEnv struct {
	store   *store.Store
	remote  *fakeRemote
	monitor *network.Monitor
	clock   *clock.Mock
	engine  *Engine
}

func setupEnv(t *testing.T, online bool, p Params, remoteNotes ...database.Note) *testEnv {
	db := database.InitTestMemoryDB(t)
	c := clock.NewMock()
	s := store.New(db, c)
	r := newFakeRemote(remoteNotes...)
	m := network.NewMonitor(online)
	t.Cleanup(m.Close)

	p.Store = s
	p.Remote = r
	p.Network = m
	p.Clock = c

	e := New(p)
	t.Cleanup(e.Wait)

	return &testEnv{
		store:   s,
		remote:  r,
		monitor: m,
		clock:   c,
		engine:  e,
	}
}

// putAt stores a local edit made at the given time
func (env *testEnv) putAt(t *testing.T, at time.Time, n database.Note) database.Note {
	t.Helper()

	env.clock.SetNow(at)
	ret, err := env.store.Put(n)
	if err != nil {
		t.Fatal(errors.Wrap(err, "putting a note"))
	}

	return ret
}

func (env *testEnv) mustGet(t *testing.T, id string) database.Note {
	t.Helper()

	n, err := env.store.Get(id)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "getting note %s", id))
	}

	return n
}

func (env *testEnv) mustRun(t *testing.T) Report {
	t.Helper()

	report, err := env.engine.Run(context.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "running a campaign"))
	}

	return report
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()

	ret, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}

	return ret.UTC()
}
