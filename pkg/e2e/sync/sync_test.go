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

package sync

import (
	"testing"

	"github.com/dnote/notesync/pkg/assert"
)

func TestSync_Push(t *testing.T) {
	env := setupTestEnv(t)

	id := addNote(t, env, "Groceries", "milk")
	assert.Equal(t, mustLocalNote(t, env, id).Synced, false, "new note should be unsynced")

	runCLI(t, env, "sync")

	local := mustLocalNote(t, env, id)
	assert.Equal(t, local.Synced, true, "note should be synced")

	remote := serverNote(t, env, id)
	if remote == nil {
		t.Fatal("note should be pushed")
	}
	assert.Equal(t, remote.Title, "Groceries", "title mismatch")
	assert.Equal(t, remote.Body, "milk", "content mismatch")
	assert.Equal(t, remote.AddedOn, local.CreatedAt.UnixNano(), "createdAt mismatch")
	assert.Equal(t, remote.EditedOn, local.UpdatedAt.UnixNano(), "updatedAt mismatch")
}

func TestSync_Edit(t *testing.T) {
	env := setupTestEnv(t)

	id := addNote(t, env, "Groceries", "milk")
	runCLI(t, env, "sync")

	runCLI(t, env, "edit", id, "-c", "milk and eggs")
	assert.Equal(t, mustLocalNote(t, env, id).Synced, false, "edited note should be unsynced")

	runCLI(t, env, "sync")

	local := mustLocalNote(t, env, id)
	assert.Equal(t, local.Synced, true, "note should be synced")
	assert.Equal(t, serverNote(t, env, id).Body, "milk and eggs", "server content mismatch")
	assert.Equal(t, serverNote(t, env, id).EditedOn, local.UpdatedAt.UnixNano(), "server updatedAt mismatch")
}

func TestSync_Delete(t *testing.T) {
	env := setupTestEnv(t)

	id := addNote(t, env, "Groceries", "milk")
	keep := addNote(t, env, "Todo", "call")
	runCLI(t, env, "sync")

	runCLI(t, env, "remove", id, "-y")
	assert.Equal(t, countTombstones(t, env), 1, "deletion should be recorded")

	runCLI(t, env, "sync")

	assert.Equal(t, serverNote(t, env, id) == nil, true, "note should be deleted on the server")
	assert.Equal(t, serverNote(t, env, keep) == nil, false, "other note should be kept on the server")
	assert.Equal(t, countTombstones(t, env), 0, "tombstone should be cleared")
}

func TestSync_Pull(t *testing.T) {
	alice := setupTestEnv(t)
	bob := setupClient(t, alice.Server, alice.ServerDB)

	id := addNote(t, alice, "Groceries", "milk")
	runCLI(t, alice, "sync")

	runCLI(t, bob, "sync", "--pull")

	got := mustLocalNote(t, bob, id)
	want := mustLocalNote(t, alice, id)
	assert.Equal(t, got.Title, "Groceries", "title mismatch")
	assert.Equal(t, got.Content, "milk", "content mismatch")
	assert.Equal(t, got.Synced, true, "pulled note should be synced")
	assert.Equal(t, got.UpdatedAt.Equal(want.UpdatedAt), true, "updatedAt should match the other client")

	// deleting on one client and pulling on the other does not resurrect
	// the note on the first
	runCLI(t, alice, "remove", id, "-y")
	runCLI(t, alice, "sync", "--pull")

	assert.Equal(t, hasLocalNote(t, alice, id), false, "deleted note should not be pulled back")
	assert.Equal(t, serverNote(t, alice, id) == nil, true, "note should be deleted on the server")
}

func TestSync_RemoteWins(t *testing.T) {
	env := setupTestEnv(t)

	id := addNote(t, env, "Groceries", "milk")
	runCLI(t, env, "sync")

	// another client edits the note after the local edit below
	remote := presentLocal(mustLocalNote(t, env, id))
	remote.Content = "remote edit"
	remote.UpdatedAt = later()
	apiPutNote(t, env, remote)

	runCLI(t, env, "edit", id, "-c", "local edit")
	runCLI(t, env, "sync")

	local := mustLocalNote(t, env, id)
	assert.Equal(t, local.Content, "remote edit", "local content should be replaced")
	assert.Equal(t, local.Synced, true, "note should be synced")
	assert.Equal(t, local.UpdatedAt.Equal(remote.UpdatedAt), true, "updatedAt should be the remote's")
	assert.Equal(t, serverNote(t, env, id).Body, "remote edit", "server content should be kept")
}

func TestSync_LocalWins(t *testing.T) {
	env := setupTestEnv(t)

	id := addNote(t, env, "Groceries", "milk")
	runCLI(t, env, "sync")

	// another client edits the note before the local edit below
	original := mustLocalNote(t, env, id)
	remote := presentLocal(original)
	remote.Content = "stale remote edit"
	remote.UpdatedAt = original.UpdatedAt.Add(1)
	apiPutNote(t, env, remote)

	runCLI(t, env, "edit", id, "-c", "local edit")
	runCLI(t, env, "sync")

	local := mustLocalNote(t, env, id)
	assert.Equal(t, local.Content, "local edit", "local content should be kept")
	assert.Equal(t, local.Synced, true, "note should be synced")
	assert.Equal(t, serverNote(t, env, id).Body, "local edit", "server content should be replaced")
}

func TestSync_Offline(t *testing.T) {
	env := setupTestEnv(t)
	id := addNote(t, env, "Groceries", "milk")

	env.Server.Close()

	if err := runCLIErr(t, env, "sync"); err == nil {
		t.Error("expected sync to fail while offline")
	}
	assert.Equal(t, mustLocalNote(t, env, id).Synced, false, "note should stay unsynced")

	switchToNewServer(t, &env)
	runCLI(t, env, "sync")

	assert.Equal(t, mustLocalNote(t, env, id).Synced, true, "note should be synced once online")
	assert.Equal(t, serverNote(t, env, id) == nil, false, "note should be pushed")
}
