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

// Package store provides the local replica of notes. It is the single shared
// mutable resource between user edits and sync campaigns.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a note does not exist in the local replica.
var ErrNotFound = errors.New("note not found")

// ErrAmbiguous is returned when an id prefix matches more than one note.
var ErrAmbiguous = errors.New("id prefix matches more than one note")

// StorageError is a failure of the persistence layer. It is fatal to the
// operation that produced it only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %s", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Store is the local replica of notes keyed by id.
type Store struct {
	db    *database.DB
	clock clock.Clock
}

// New returns a store backed by the given database.
func New(db *database.DB, c clock.Clock) *Store {
	return &Store{db: db, clock: c}
}

// nextUpdatedAt returns a timestamp strictly after prev so that every local
// mutation advances updatedAt even when the clock is coarse.
func nextUpdatedAt(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}

	return prev.Add(time.Nanosecond)
}

// Put records a local mutation of a note. A note without an id is assigned
// one. The stored note is marked unsynced and its updatedAt is advanced,
// unless the title and content are identical to what is already stored, in
// which case the stored note is returned unchanged.
func (s *Store) Put(n database.Note) (database.Note, error) {
	if n.ID == "" {
		id, err := utils.GenerateUUID()
		if err != nil {
			return database.Note{}, errors.Wrap(err, "generating a note id")
		}
		n.ID = id
	}

	tx, err := s.db.Begin()
	if err != nil {
		return database.Note{}, storageErr("put", err)
	}
	defer tx.Rollback()

	now := s.clock.Now()

	existing, err := database.GetNote(tx, n.ID)
	switch {
	case err == sql.ErrNoRows:
		n.CreatedAt = now
		n.UpdatedAt = now
		n.Synced = false

		if err := n.Insert(tx); err != nil {
			return database.Note{}, storageErr("put", err)
		}
	case err != nil:
		return database.Note{}, storageErr("put", err)
	case existing.SameContent(n):
		return existing, nil
	default:
		n.CreatedAt = existing.CreatedAt
		n.UpdatedAt = nextUpdatedAt(now, existing.UpdatedAt)
		n.Synced = false

		if err := n.Update(tx); err != nil {
			return database.Note{}, storageErr("put", err)
		}
	}

	// recreating a deleted note supersedes the pending remote deletion
	if err := (database.Tombstone{NoteID: n.ID}).Expunge(tx); err != nil {
		return database.Note{}, storageErr("put", err)
	}

	if err := tx.Commit(); err != nil {
		return database.Note{}, storageErr("put", errors.Wrap(err, "committing transaction"))
	}

	log.Debug("put note %s at %s\n", n.ID, n.UpdatedAt.Format(time.RFC3339Nano))

	return n, nil
}

// Get returns the note with the given id, or ErrNotFound.
func (s *Store) Get(id string) (database.Note, error) {
	n, err := database.GetNote(s.db, id)
	if err == sql.ErrNoRows {
		return database.Note{}, ErrNotFound
	}
	if err != nil {
		return database.Note{}, storageErr("get", err)
	}

	return n, nil
}

// FindByPrefix returns the note whose id is, or starts with, the given
// prefix. An exact match wins over prefix matches.
func (s *Store) FindByPrefix(prefix string) (database.Note, error) {
	if prefix == "" {
		return database.Note{}, ErrNotFound
	}

	n, err := s.Get(prefix)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return database.Note{}, err
	}

	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(prefix)
	notes, err := database.QueryNotes(s.db, `WHERE id LIKE ? ESCAPE '\' ORDER BY updated_at DESC LIMIT 2`, escaped+"%")
	if err != nil {
		return database.Note{}, storageErr("findByPrefix", err)
	}

	switch len(notes) {
	case 0:
		return database.Note{}, ErrNotFound
	case 1:
		return notes[0], nil
	default:
		return database.Note{}, errors.Wrapf(ErrAmbiguous, "prefix %s", prefix)
	}
}

// dedupe drops repeated ids from notes, keeping the first occurrence. A
// repeat means the replica is corrupt. It is reported but not returned as an
// error.
func dedupe(notes []database.Note) []database.Note {
	seen := map[string]bool{}
	ret := make([]database.Note, 0, len(notes))

	for _, n := range notes {
		if seen[n.ID] {
			log.Warnf("duplicate rows found for note %s; keeping the most recent one\n", n.ID)
			continue
		}

		seen[n.ID] = true
		ret = append(ret, n)
	}

	return ret
}

// GetAll returns every note, most recently updated first.
func (s *Store) GetAll() ([]database.Note, error) {
	notes, err := database.QueryNotes(s.db, "ORDER BY updated_at DESC, id ASC")
	if err != nil {
		return nil, storageErr("getAll", err)
	}

	return dedupe(notes), nil
}

// GetUnsynced returns the notes that may diverge from the remote, most
// recently updated first.
func (s *Store) GetUnsynced() ([]database.Note, error) {
	notes, err := database.QueryNotes(s.db, "WHERE synced = ? ORDER BY updated_at DESC, id ASC", false)
	if err != nil {
		return nil, storageErr("getUnsynced", err)
	}

	return dedupe(notes), nil
}

// Delete removes the note and records a tombstone so that the deletion is
// propagated to the remote by a later campaign. Deleting an absent note is a
// no-op.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("delete", err)
	}
	defer tx.Rollback()

	n, err := database.GetNote(tx, id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return storageErr("delete", err)
	}

	if err := n.Expunge(tx); err != nil {
		return storageErr("delete", err)
	}

	ts := database.Tombstone{NoteID: id, DeletedAt: s.clock.Now()}
	if err := ts.Insert(tx); err != nil {
		return storageErr("delete", err)
	}

	if err := (database.SyncError{NoteID: id}).Expunge(tx); err != nil {
		return storageErr("delete", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("delete", errors.Wrap(err, "committing transaction"))
	}

	return nil
}

// MarkSynced marks the note as synced provided its updatedAt still equals at.
// It reports false if the note has since been mutated or removed, in which
// case it is left untouched.
func (s *Store) MarkSynced(id string, at time.Time) (bool, error) {
	res, err := s.db.Exec("UPDATE notes SET synced = ? WHERE id = ? AND updated_at = ?",
		true, id, database.ToTS(at))
	if err != nil {
		return false, storageErr("markSynced", errors.Wrapf(err, "marking note %s synced", id))
	}

	cnt, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("markSynced", errors.Wrap(err, "counting affected rows"))
	}

	return cnt == 1, nil
}

// ApplyRemote overwrites the local note with the remote version and marks it
// synced, keeping the remote updatedAt. The write happens only if the local
// updatedAt still equals expected; otherwise it is discarded and false is
// returned.
func (s *Store) ApplyRemote(remote database.Note, expected time.Time) (bool, error) {
	remote.Synced = true

	ok, err := remote.UpdateIfUnchanged(s.db, expected)
	if err != nil {
		return false, storageErr("applyRemote", err)
	}

	return ok, nil
}

// ApplyPulled stores a note listed by the remote. A note absent locally is
// inserted. A synced local note older than the remote version is replaced,
// provided it was not edited meanwhile. Notes with local edits or a pending
// deletion are left for the campaign to reconcile. It reports whether the
// replica changed.
func (s *Store) ApplyPulled(remote database.Note) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, storageErr("applyPulled", err)
	}
	defer tx.Rollback()

	deleted, err := database.HasTombstone(tx, remote.ID)
	if err != nil {
		return false, storageErr("applyPulled", err)
	}
	if deleted {
		return false, nil
	}

	remote.Synced = true

	local, err := database.GetNote(tx, remote.ID)
	switch {
	case err == sql.ErrNoRows:
		if err := remote.Insert(tx); err != nil {
			return false, storageErr("applyPulled", err)
		}
	case err != nil:
		return false, storageErr("applyPulled", err)
	case !local.Synced || !remote.UpdatedAt.After(local.UpdatedAt):
		return false, nil
	default:
		ok, err := remote.UpdateIfUnchanged(tx, local.UpdatedAt)
		if err != nil {
			return false, storageErr("applyPulled", err)
		}
		if !ok {
			return false, nil
		}
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("applyPulled", errors.Wrap(err, "committing transaction"))
	}

	return true, nil
}

// RecordFailure persists that the last campaign failed to reconcile the note
func (s *Store) RecordFailure(id string, cause error) error {
	e := database.SyncError{NoteID: id, Message: cause.Error(), FailedAt: s.clock.Now()}
	if err := e.Insert(s.db); err != nil {
		return storageErr("recordFailure", err)
	}

	return nil
}

// ClearFailure forgets the recorded failure of the note, if any
func (s *Store) ClearFailure(id string) error {
	if err := (database.SyncError{NoteID: id}).Expunge(s.db); err != nil {
		return storageErr("clearFailure", err)
	}

	return nil
}

// Failures returns the notes whose last reconciliation failed, keyed by id
func (s *Store) Failures() (map[string]database.SyncError, error) {
	ret, err := database.GetSyncErrors(s.db)
	if err != nil {
		return nil, storageErr("failures", err)
	}

	return ret, nil
}

// Tombstones returns the pending remote deletions, oldest first.
func (s *Store) Tombstones() ([]database.Tombstone, error) {
	ret, err := database.GetTombstones(s.db)
	if err != nil {
		return nil, storageErr("tombstones", err)
	}

	return ret, nil
}

// ClearTombstone removes the pending deletion for the given note id.
func (s *Store) ClearTombstone(id string) error {
	if err := (database.Tombstone{NoteID: id}).Expunge(s.db); err != nil {
		return storageErr("clearTombstone", err)
	}

	return nil
}

// GetSystem reads a value from the system table into dest.
func (s *Store) GetSystem(key string, dest interface{}) (bool, error) {
	ok, err := database.GetSystem(s.db, key, dest)
	if err != nil {
		return false, storageErr("getSystem", err)
	}

	return ok, nil
}

// SetSystem writes a value to the system table.
func (s *Store) SetSystem(key string, val interface{}) error {
	if err := database.UpsertSystem(s.db, key, val); err != nil {
		return storageErr("setSystem", err)
	}

	return nil
}
