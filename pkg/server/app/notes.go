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

package app

import (
	"errors"
	"fmt"

	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/validate"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is an error for a note that does not exist
	ErrNotFound = errors.New("Note not found")
	// ErrIDMismatch is an error for a payload whose id differs from the id in the path
	ErrIDMismatch = errors.New("The note id does not match the path")
	// ErrTimestampMissing is an error for a note without a creation or update time
	ErrTimestampMissing = errors.New("The timestamp is missing")
)

// ValidationError is an error for a note payload that cannot be stored
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NoteParams is the client supplied state of a note. AddedOn and EditedOn
// are unix nanoseconds.
type NoteParams struct {
	UUID     string
	Title    string
	Body     string
	AddedOn  int64
	EditedOn int64
	Client   string
}

func (p NoteParams) validate() error {
	if err := validate.NoteID(p.UUID); err != nil {
		return &ValidationError{Field: "id", Err: err}
	}
	if p.AddedOn == 0 {
		return &ValidationError{Field: "createdAt", Err: ErrTimestampMissing}
	}
	if p.EditedOn == 0 {
		return &ValidationError{Field: "updatedAt", Err: ErrTimestampMissing}
	}

	return nil
}

// SaveNote stores the note as given with the next usn, replacing any note
// with the same uuid. Title and body are stored as they are. It returns the
// stored note and whether it was newly created.
func (a *App) SaveNote(p NoteParams) (database.Note, bool, error) {
	if err := p.validate(); err != nil {
		return database.Note{}, false, err
	}

	tx := a.DB.Begin()

	var note database.Note
	err := tx.Where("uuid = ?", p.UUID).First(&note).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		tx.Rollback()
		return note, false, pkgErrors.Wrap(err, "finding note")
	}

	nextUSN, err := incrementMaxUSN(tx)
	if err != nil {
		tx.Rollback()
		return note, false, pkgErrors.Wrap(err, "incrementing max_usn")
	}

	note.UUID = p.UUID
	note.Title = p.Title
	note.Body = p.Body
	note.AddedOn = p.AddedOn
	note.EditedOn = p.EditedOn
	note.USN = nextUSN
	note.Client = p.Client

	if err := tx.Save(&note).Error; err != nil {
		tx.Rollback()
		return note, false, pkgErrors.Wrap(err, "saving note")
	}

	if err := tx.Commit().Error; err != nil {
		return note, false, pkgErrors.Wrap(err, "committing transaction")
	}

	return note, created, nil
}

// CreateNote stores a note sent as new. A note whose uuid already exists is
// overwritten so that a repeated create is idempotent.
func (a *App) CreateNote(p NoteParams) (database.Note, bool, error) {
	return a.SaveNote(p)
}

// UpdateNote replaces the note with the given uuid, creating it if it does
// not exist. An empty uuid in the payload takes the uuid from the path.
func (a *App) UpdateNote(uuid string, p NoteParams) (database.Note, bool, error) {
	if p.UUID == "" {
		p.UUID = uuid
	} else if p.UUID != uuid {
		return database.Note{}, false, ErrIDMismatch
	}

	return a.SaveNote(p)
}

// DeleteNote removes the note with the given uuid
func (a *App) DeleteNote(uuid string) error {
	conn := a.DB.Where("uuid = ?", uuid).Delete(&database.Note{})
	if err := conn.Error; err != nil {
		return pkgErrors.Wrap(err, "deleting note")
	}
	if conn.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetNoteByUUID retrieves a note by the uuid. It returns nil if the note
// does not exist.
func (a *App) GetNoteByUUID(uuid string) (*database.Note, error) {
	var ret database.Note
	err := a.DB.Where("uuid = ?", uuid).First(&ret).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgErrors.Wrap(err, "finding note")
	}

	return &ret, nil
}

// ListNotesParams is params for listing notes
type ListNotesParams struct {
	// AfterUSN is an exclusive lower bound on USN. Zero lists every note.
	AfterUSN int64
}

// ListNotes returns the notes written after the given usn in the order the
// server received them
func (a *App) ListNotes(params ListNotesParams) ([]database.Note, error) {
	conn := a.DB.Model(&database.Note{})
	if params.AfterUSN != 0 {
		conn = conn.Where("usn > ?", params.AfterUSN)
	}

	notes := []database.Note{}
	if err := conn.Order("usn ASC").Find(&notes).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "finding notes")
	}

	return notes, nil
}
