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

package database

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Note represents a note in the local replica. It is also the payload
// exchanged with the remote.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Synced    bool      `json:"synced"`
}

// SameContent reports whether two versions of a note carry the same user data
func (n Note) SameContent(o Note) bool {
	return n.Title == o.Title && n.Content == o.Content
}

// ToTS converts a time to the integer representation stored in the database
func ToTS(t time.Time) int64 {
	return t.UnixNano()
}

// FromTS converts a stored timestamp back into a UTC time
func FromTS(ts int64) time.Time {
	return time.Unix(0, ts).UTC()
}

const noteColumns = "id, title, content, created_at, updated_at, synced"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(s scanner) (Note, error) {
	var n Note
	var createdAt, updatedAt int64

	if err := s.Scan(&n.ID, &n.Title, &n.Content, &createdAt, &updatedAt, &n.Synced); err != nil {
		return n, err
	}

	n.CreatedAt = FromTS(createdAt)
	n.UpdatedAt = FromTS(updatedAt)

	return n, nil
}

// Insert inserts a new note
func (n Note) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO notes (id, title, content, created_at, updated_at, synced) VALUES (?, ?, ?, ?, ?, ?)",
		n.ID, n.Title, n.Content, ToTS(n.CreatedAt), ToTS(n.UpdatedAt), n.Synced)
	if err != nil {
		return errors.Wrapf(err, "inserting note with id %s", n.ID)
	}

	return nil
}

// Update overwrites the mutable fields of the note with the given id
func (n Note) Update(db *DB) error {
	_, err := db.Exec("UPDATE notes SET title = ?, content = ?, updated_at = ?, synced = ? WHERE id = ?",
		n.Title, n.Content, ToTS(n.UpdatedAt), n.Synced, n.ID)
	if err != nil {
		return errors.Wrapf(err, "updating the note with id %s", n.ID)
	}

	return nil
}

// UpdateIfUnchanged overwrites the note only if its stored updated_at still
// equals the given timestamp. It reports whether the row was written.
func (n Note) UpdateIfUnchanged(db *DB, expected time.Time) (bool, error) {
	res, err := db.Exec("UPDATE notes SET title = ?, content = ?, updated_at = ?, synced = ? WHERE id = ? AND updated_at = ?",
		n.Title, n.Content, ToTS(n.UpdatedAt), n.Synced, n.ID, ToTS(expected))
	if err != nil {
		return false, errors.Wrapf(err, "conditionally updating the note with id %s", n.ID)
	}

	cnt, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting affected rows")
	}

	return cnt == 1, nil
}

// Expunge hard-deletes the note from the database
func (n Note) Expunge(db *DB) error {
	if _, err := db.Exec("DELETE FROM notes WHERE id = ?", n.ID); err != nil {
		return errors.Wrapf(err, "expunging note %s locally", n.ID)
	}

	return nil
}

// GetNote finds the note with the given id. It returns sql.ErrNoRows,
// unwrapped, if no such note exists.
func GetNote(db *DB, id string) (Note, error) {
	n, err := scanNote(db.QueryRow("SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return n, err
	}
	if err != nil {
		return n, errors.Wrapf(err, "finding note %s", id)
	}

	return n, nil
}

// QueryNotes selects the notes matching the given clause, such as a WHERE
// and ORDER BY, and scans every row
func QueryNotes(db *DB, where string, args ...interface{}) ([]Note, error) {
	rows, err := db.Query("SELECT "+noteColumns+" FROM notes "+where, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	defer rows.Close()

	ret := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a note")
		}

		ret = append(ret, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating notes")
	}

	return ret, nil
}

// Tombstone records that a note was deleted locally and that the deletion
// has not yet been confirmed by the remote
type Tombstone struct {
	NoteID    string
	DeletedAt time.Time
}

// Insert records the tombstone, replacing any earlier one for the same note
func (t Tombstone) Insert(db *DB) error {
	_, err := db.Exec("INSERT OR REPLACE INTO tombstones (note_id, deleted_at) VALUES (?, ?)",
		t.NoteID, ToTS(t.DeletedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting tombstone for note %s", t.NoteID)
	}

	return nil
}

// Expunge removes the tombstone
func (t Tombstone) Expunge(db *DB) error {
	if _, err := db.Exec("DELETE FROM tombstones WHERE note_id = ?", t.NoteID); err != nil {
		return errors.Wrapf(err, "expunging tombstone for note %s", t.NoteID)
	}

	return nil
}

// GetTombstones returns all pending tombstones, oldest first
func GetTombstones(db *DB) ([]Tombstone, error) {
	rows, err := db.Query("SELECT note_id, deleted_at FROM tombstones ORDER BY deleted_at ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying tombstones")
	}
	defer rows.Close()

	ret := []Tombstone{}
	for rows.Next() {
		var t Tombstone
		var deletedAt int64
		if err := rows.Scan(&t.NoteID, &deletedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a tombstone")
		}

		t.DeletedAt = FromTS(deletedAt)
		ret = append(ret, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating tombstones")
	}

	return ret, nil
}

// HasTombstone reports whether a deletion is pending for the given note
func HasTombstone(db *DB, noteID string) (bool, error) {
	var cnt int
	if err := db.QueryRow("SELECT count(*) FROM tombstones WHERE note_id = ?", noteID).Scan(&cnt); err != nil {
		return false, errors.Wrapf(err, "counting tombstones for note %s", noteID)
	}

	return cnt > 0, nil
}

// SyncError records that the last campaign failed to reconcile a note
type SyncError struct {
	NoteID   string
	Message  string
	FailedAt time.Time
}

// Insert records the failure, replacing any earlier one for the same note
func (e SyncError) Insert(db *DB) error {
	_, err := db.Exec("INSERT OR REPLACE INTO sync_errors (note_id, message, failed_at) VALUES (?, ?, ?)",
		e.NoteID, e.Message, ToTS(e.FailedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting sync error for note %s", e.NoteID)
	}

	return nil
}

// Expunge removes the failure
func (e SyncError) Expunge(db *DB) error {
	if _, err := db.Exec("DELETE FROM sync_errors WHERE note_id = ?", e.NoteID); err != nil {
		return errors.Wrapf(err, "expunging sync error for note %s", e.NoteID)
	}

	return nil
}

// GetSyncErrors returns the recorded failures keyed by note id
func GetSyncErrors(db *DB) (map[string]SyncError, error) {
	rows, err := db.Query("SELECT note_id, message, failed_at FROM sync_errors")
	if err != nil {
		return nil, errors.Wrap(err, "querying sync errors")
	}
	defer rows.Close()

	ret := map[string]SyncError{}
	for rows.Next() {
		var e SyncError
		var failedAt int64
		if err := rows.Scan(&e.NoteID, &e.Message, &failedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a sync error")
		}

		e.FailedAt = FromTS(failedAt)
		ret[e.NoteID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating sync errors")
	}

	return ret, nil
}
