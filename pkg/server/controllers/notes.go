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

package controllers

import (
	"net/http"
	"time"

	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/presenters"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// NewNotes creates a new Notes controller.
func NewNotes(app *app.App) *Notes {
	return &Notes{
		app: app,
	}
}

// Notes is a notes controller.
type Notes struct {
	app *app.App
}

// noteForm is the note payload sent by clients
type noteForm struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f noteForm) toParams(r *http.Request) app.NoteParams {
	p := app.NoteParams{
		UUID:   f.ID,
		Title:  f.Title,
		Body:   f.Content,
		Client: r.Header.Get("User-Agent"),
	}

	if !f.CreatedAt.IsZero() {
		p.AddedOn = f.CreatedAt.UnixNano()
	}
	if !f.UpdatedAt.IsZero() {
		p.EditedOn = f.UpdatedAt.UnixNano()
	}

	return p
}

func savedStatus(created bool) int {
	if created {
		return http.StatusCreated
	}

	return http.StatusOK
}

// IndexQuery is the query of the note list
type IndexQuery struct {
	AfterUSN int64 `schema:"afterUsn"`
}

// IndexResp is the response of the note list. MaxUSN is the usn a client
// passes as afterUsn to fetch only what was written since.
type IndexResp struct {
	Notes  []presenters.Note `json:"notes"`
	MaxUSN int64             `json:"maxUsn"`
}

// Index handles GET /notes
func (n *Notes) Index(w http.ResponseWriter, r *http.Request) {
	var q IndexQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	if q.AfterUSN < 0 {
		handleJSONError(w, errors.Wrap(errInvalidPayload, "negative afterUsn"), "parsing query")
		return
	}

	notes, err := n.app.ListNotes(app.ListNotesParams{AfterUSN: q.AfterUSN})
	if err != nil {
		handleJSONError(w, err, "listing notes")
		return
	}

	maxUSN := q.AfterUSN
	if len(notes) > 0 {
		maxUSN = notes[len(notes)-1].USN
	}

	respondJSON(w, http.StatusOK, IndexResp{
		Notes:  presenters.PresentNotes(notes),
		MaxUSN: maxUSN,
	})
}

// Show handles GET /notes/{noteUUID}
func (n *Notes) Show(w http.ResponseWriter, r *http.Request) {
	noteUUID := mux.Vars(r)["noteUUID"]

	note, err := n.app.GetNoteByUUID(noteUUID)
	if err != nil {
		handleJSONError(w, err, "finding note")
		return
	}
	if note == nil {
		handleJSONError(w, app.ErrNotFound, "finding note")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentNote(*note))
}

// Create handles POST /notes
func (n *Notes) Create(w http.ResponseWriter, r *http.Request) {
	var form noteForm
	if err := parseJSON(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	note, created, err := n.app.CreateNote(form.toParams(r))
	if err != nil {
		handleJSONError(w, err, "creating note")
		return
	}

	respondJSON(w, savedStatus(created), presenters.PresentNote(note))
}

// Update handles PUT /notes/{noteUUID}
func (n *Notes) Update(w http.ResponseWriter, r *http.Request) {
	noteUUID := mux.Vars(r)["noteUUID"]

	var form noteForm
	if err := parseJSON(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	note, created, err := n.app.UpdateNote(noteUUID, form.toParams(r))
	if err != nil {
		handleJSONError(w, errors.Wrapf(err, "note %s", noteUUID), "updating note")
		return
	}

	respondJSON(w, savedStatus(created), presenters.PresentNote(note))
}

// Delete handles DELETE /notes/{noteUUID}
func (n *Notes) Delete(w http.ResponseWriter, r *http.Request) {
	noteUUID := mux.Vars(r)["noteUUID"]

	if err := n.app.DeleteNote(noteUUID); err != nil {
		handleJSONError(w, err, "deleting note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
