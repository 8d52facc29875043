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

package presenters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/server/database"
)

func TestPresentNote(t *testing.T) {
	createdAt := time.Date(2025, 1, 15, 10, 30, 45, 123456789, time.UTC)
	updatedAt := time.Date(2025, 2, 20, 14, 45, 30, 987654321, time.UTC)

	input := database.Note{
		Model: database.Model{
			ID:        1,
			CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		UUID:     "a1b2c3d4-e5f6-4789-a012-3456789abcde",
		Title:    "Groceries",
		Body:     "Test note content",
		AddedOn:  createdAt.UnixNano(),
		EditedOn: updatedAt.UnixNano(),
	}

	got := PresentNote(input)

	assert.DeepEqual(t, got, Note{
		ID:        "a1b2c3d4-e5f6-4789-a012-3456789abcde",
		Title:     "Groceries",
		Content:   "Test note content",
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Synced:    true,
	}, "result mismatch")
}

func TestPresentNote_JSON(t *testing.T) {
	input := database.Note{
		UUID:     "n1",
		Title:    "t",
		Body:     "b",
		AddedOn:  time.Date(2025, 1, 1, 0, 0, 0, 1, time.UTC).UnixNano(),
		EditedOn: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).UnixNano(),
	}

	b, err := json.Marshal(PresentNote(input))
	if err != nil {
		t.Fatal(err)
	}

	assert.EqualJSON(t, string(b), `{
		"id": "n1",
		"title": "t",
		"content": "b",
		"createdAt": "2025-01-01T00:00:00.000000001Z",
		"updatedAt": "2025-01-02T00:00:00Z",
		"synced": true
	}`, "JSON mismatch")
}

func TestPresentNotes(t *testing.T) {
	ts1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ts2 := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)

	input := []database.Note{
		{UUID: "n1", Body: "first", AddedOn: ts1.UnixNano(), EditedOn: ts1.UnixNano()},
		{UUID: "n2", Body: "second", AddedOn: ts1.UnixNano(), EditedOn: ts2.UnixNano()},
	}

	got := PresentNotes(input)

	assert.Equal(t, len(got), 2, "length mismatch")
	assert.Equal(t, got[0].ID, "n1", "n1 ID mismatch")
	assert.Equal(t, got[0].Content, "first", "n1 Content mismatch")
	assert.Equal(t, got[1].ID, "n2", "n2 ID mismatch")
	assert.Equal(t, got[1].UpdatedAt, ts2, "n2 UpdatedAt mismatch")

	assert.DeepEqual(t, PresentNotes(nil), []Note{}, "empty result mismatch")
}

func TestFormatTS(t *testing.T) {
	ts := time.Date(2025, 1, 15, 10, 30, 45, 123456789, time.UTC)

	assert.Equal(t, FormatTS(ts.UnixNano()), ts, "time mismatch")
	assert.Equal(t, FormatTS(ts.UnixNano()).Location(), time.UTC, "location mismatch")
}
