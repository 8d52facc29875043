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

// Package presenters maps database models to the JSON sent to clients
package presenters

import (
	"time"

	"github.com/dnote/notesync/pkg/server/database"
)

// Note is a result of PresentNote
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Synced    bool      `json:"synced"`
}

// PresentNote presents note. A note the server holds is synced by
// definition.
func PresentNote(note database.Note) Note {
	ret := Note{
		ID:        note.UUID,
		Title:     note.Title,
		Content:   note.Body,
		CreatedAt: FormatTS(note.AddedOn),
		UpdatedAt: FormatTS(note.EditedOn),
		Synced:    true,
	}

	return ret
}

// PresentNotes presents notes
func PresentNotes(notes []database.Note) []Note {
	ret := []Note{}

	for _, note := range notes {
		p := PresentNote(note)
		ret = append(ret, p)
	}

	return ret
}
