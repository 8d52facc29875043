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

package testutils

import (
	"testing"

	"github.com/dnote/notesync/pkg/cli/database"
)

// Setup1 sets up an env with a single unsynced note
func Setup1(t *testing.T, db *database.DB) {
	database.MustExec(t, "setting up note 1", db, "INSERT INTO notes (id, title, content, created_at, updated_at, synced) VALUES (?, ?, ?, ?, ?, ?)",
		"43827b9a-c2b0-4c06-a290-97991c896653", "Booleans", "Booleans have toString()", int64(1515199943000000000), int64(1515199943000000000), false)
}

// Setup2 sets up an env with three notes, two of which are synced
func Setup2(t *testing.T, db *database.DB) {
	database.MustExec(t, "setting up note 1", db, "INSERT INTO notes (id, title, content, created_at, updated_at, synced) VALUES (?, ?, ?, ?, ?, ?)",
		"f0d0fbb7-31ff-45ae-9f0f-4e429c0c797f", "n1", "n1 body", int64(1515199951000000000), int64(1515199951000000000), true)
	database.MustExec(t, "setting up note 2", db, "INSERT INTO notes (id, title, content, created_at, updated_at, synced) VALUES (?, ?, ?, ?, ?, ?)",
		"43827b9a-c2b0-4c06-a290-97991c896653", "n2", "n2 body", int64(1515199943000000000), int64(1515199943000000000), true)
	database.MustExec(t, "setting up note 3", db, "INSERT INTO notes (id, title, content, created_at, updated_at, synced) VALUES (?, ?, ?, ?, ?, ?)",
		"3e065d55-6d47-42f2-a6bf-f5844130b2d2", "n3", "n3 body", int64(1515199961000000000), int64(1515199961000000000), false)
}
