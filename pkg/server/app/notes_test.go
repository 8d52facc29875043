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
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/testutils"
	"github.com/dnote/notesync/pkg/validate"
)

var (
	ts1 = time.Date(2018, time.November, 12, 10, 11, 0, 0, time.UTC).UnixNano()
	ts2 = time.Date(2018, time.November, 15, 0, 1, 10, 0, time.UTC).UnixNano()
	ts3 = time.Date(2018, time.November, 20, 8, 0, 0, 0, time.UTC).UnixNano()
)

func countNotes(t *testing.T, a App) int64 {
	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Note{}).Count(&count), "counting notes")

	return count
}

func TestSaveNote(t *testing.T) {
	t.Run("new", func(t *testing.T) {
		a := NewTest(testutils.InitMemoryDB(t))

		note, created, err := a.SaveNote(NoteParams{
			UUID:     "n1",
			Title:    "Groceries",
			Body:     "milk",
			AddedOn:  ts1,
			EditedOn: ts2,
			Client:   "cli",
		})
		if err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, created, true, "created mismatch")
		assert.Equal(t, countNotes(t, a), int64(1), "note count mismatch")

		var got database.Note
		testutils.MustExec(t, a.DB.Where("uuid = ?", "n1").First(&got), "finding note")
		assert.Equal(t, got.ID, note.ID, "ID mismatch")
		assert.Equal(t, got.Title, "Groceries", "Title mismatch")
		assert.Equal(t, got.Body, "milk", "Body mismatch")
		assert.Equal(t, got.AddedOn, ts1, "AddedOn mismatch")
		assert.Equal(t, got.EditedOn, ts2, "EditedOn mismatch")
		assert.Equal(t, got.Client, "cli", "Client mismatch")
		assert.Equal(t, got.USN, int64(1), "USN mismatch")
	})

	t.Run("existing", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)
		a := NewTest(db)
		existing := testutils.SetupNote(t, db, "n1", "Groceries", "milk", ts1, ts2)

		note, created, err := a.SaveNote(NoteParams{
			UUID:     "n1",
			Title:    "Groceries",
			Body:     "milk and eggs",
			AddedOn:  ts1,
			EditedOn: ts3,
		})
		if err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, created, false, "created mismatch")
		assert.Equal(t, note.ID, existing.ID, "ID mismatch")
		assert.Equal(t, countNotes(t, a), int64(1), "note count mismatch")

		var got database.Note
		testutils.MustExec(t, db.Where("uuid = ?", "n1").First(&got), "finding note")
		assert.Equal(t, got.Body, "milk and eggs", "Body mismatch")
		assert.Equal(t, got.EditedOn, ts3, "EditedOn mismatch")
		assert.Equal(t, got.USN, existing.USN+1, "USN mismatch")
	})
}

func TestSaveNote_FreeFormTitle(t *testing.T) {
	testCases := []string{
		strings.Repeat("a", 201),
		"line1\nline2",
		"",
	}

	for idx, title := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			a := NewTest(testutils.InitMemoryDB(t))

			note, _, err := a.SaveNote(NoteParams{UUID: "n1", Title: title, AddedOn: ts1, EditedOn: ts1})
			if err != nil {
				t.Fatal(err)
			}

			assert.Equal(t, note.Title, title, "Title mismatch")
		})
	}
}

func TestSaveNote_Invalid(t *testing.T) {
	testCases := []struct {
		params        NoteParams
		expectedField string
		expectedErr   error
	}{
		{
			params:        NoteParams{UUID: "", AddedOn: ts1, EditedOn: ts1},
			expectedField: "id",
			expectedErr:   validate.ErrIDEmpty,
		},
		{
			params:        NoteParams{UUID: "a/b", AddedOn: ts1, EditedOn: ts1},
			expectedField: "id",
			expectedErr:   validate.ErrIDInvalid,
		},
		{
			params:        NoteParams{UUID: "n1", EditedOn: ts1},
			expectedField: "createdAt",
			expectedErr:   ErrTimestampMissing,
		},
		{
			params:        NoteParams{UUID: "n1", AddedOn: ts1},
			expectedField: "updatedAt",
			expectedErr:   ErrTimestampMissing,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			a := NewTest(testutils.InitMemoryDB(t))

			_, _, err := a.SaveNote(tc.params)

			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected a validation error, got %v", err)
			}
			assert.Equal(t, verr.Field, tc.expectedField, "field mismatch")
			assert.ErrorIs(t, err, tc.expectedErr, "error mismatch")
			assert.Equal(t, countNotes(t, a), int64(0), "note count mismatch")
		})
	}
}

func TestCreateNote_Idempotent(t *testing.T) {
	a := NewTest(testutils.InitMemoryDB(t))
	p := NoteParams{UUID: "n1", Title: "t", Body: "b", AddedOn: ts1, EditedOn: ts1}

	_, created, err := a.CreateNote(p)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, created, true, "first create mismatch")

	_, created, err = a.CreateNote(p)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, created, false, "second create mismatch")
	assert.Equal(t, countNotes(t, a), int64(1), "note count mismatch")
}

func TestUpdateNote(t *testing.T) {
	testCases := []struct {
		pathUUID        string
		payloadUUID     string
		expectedErr     error
		expectedCreated bool
	}{
		{
			pathUUID:        "n1",
			payloadUUID:     "n1",
			expectedCreated: false,
		},
		{
			pathUUID:        "n1",
			payloadUUID:     "",
			expectedCreated: false,
		},
		{
			pathUUID:        "n2",
			payloadUUID:     "",
			expectedCreated: true,
		},
		{
			pathUUID:    "n1",
			payloadUUID: "n2",
			expectedErr: ErrIDMismatch,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			db := testutils.InitMemoryDB(t)
			a := NewTest(db)
			testutils.SetupNote(t, db, "n1", "old", "old body", ts1, ts1)

			note, created, err := a.UpdateNote(tc.pathUUID, NoteParams{
				UUID:     tc.payloadUUID,
				Title:    "new",
				Body:     "new body",
				AddedOn:  ts1,
				EditedOn: ts2,
			})

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr, "error mismatch")
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			assert.Equal(t, created, tc.expectedCreated, "created mismatch")
			assert.Equal(t, note.UUID, tc.pathUUID, "UUID mismatch")
			assert.Equal(t, note.Body, "new body", "Body mismatch")
			assert.Equal(t, note.EditedOn, ts2, "EditedOn mismatch")
		})
	}
}

func TestDeleteNote(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	a := NewTest(db)
	testutils.SetupNote(t, db, "n1", "t", "b", ts1, ts1)
	testutils.SetupNote(t, db, "n2", "t", "b", ts1, ts1)

	if err := a.DeleteNote("n1"); err != nil {
		t.Fatal(err)
	}

	n1, err := a.GetNoteByUUID("n1")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, n1 == nil, true, "n1 should be deleted")
	assert.Equal(t, countNotes(t, a), int64(1), "note count mismatch")

	assert.ErrorIs(t, a.DeleteNote("n1"), ErrNotFound, "deleting a missing note")
}

func TestGetNoteByUUID(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	a := NewTest(db)
	testutils.SetupNote(t, db, "n1", "Groceries", "milk", ts1, ts2)

	got, err := a.GetNoteByUUID("n1")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, got.Title, "Groceries", "Title mismatch")
	assert.Equal(t, got.AddedOn, ts1, "AddedOn mismatch")

	missing, err := a.GetNoteByUUID("nope")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, missing == nil, true, "missing note should be nil")
}

func TestListNotes(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	a := NewTest(db)
	n3 := testutils.SetupNote(t, db, "n3", "c", "", ts1, ts3)
	n1 := testutils.SetupNote(t, db, "n1", "a", "", ts1, ts1)
	testutils.SetupNote(t, db, "n2", "b", "", ts1, ts2)

	// written offline long ago and received last
	late, _, err := a.SaveNote(NoteParams{UUID: "n0", Title: "late", AddedOn: ts1, EditedOn: ts1})
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		afterUSN int64
		expected []string
	}{
		{
			afterUSN: 0,
			expected: []string{"n3", "n1", "n2", "n0"},
		},
		{
			afterUSN: n3.USN,
			expected: []string{"n1", "n2", "n0"},
		},
		{
			afterUSN: n1.USN + 1,
			expected: []string{"n0"},
		},
		{
			afterUSN: late.USN,
			expected: []string{},
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			notes, err := a.ListNotes(ListNotesParams{AfterUSN: tc.afterUSN})
			if err != nil {
				t.Fatal(err)
			}

			got := []string{}
			for _, n := range notes {
				got = append(got, n.UUID)
			}

			assert.DeepEqual(t, got, tc.expected, "uuids mismatch")
		})
	}
}
