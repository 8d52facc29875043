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

// Package sync tests the CLI against a real server end to end
package sync

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/cli/consts"
	cliDatabase "github.com/dnote/notesync/pkg/cli/database"
	clitest "github.com/dnote/notesync/pkg/cli/testutils"
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/controllers"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/presenters"
	apitest "github.com/dnote/notesync/pkg/server/testutils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// cliBinaryName is the path of the CLI binary built by TestMain
var cliBinaryName string

// testEnv holds the test environment for a single client
type testEnv struct {
	DBPath   string
	CmdOpts  clitest.RunNotesyncCmdOptions
	Server   *httptest.Server
	ServerDB *gorm.DB
	TmpDir   string
}

// setupTestEnv creates an isolated client with its own database and temp
// directory, syncing with a new server
func setupTestEnv(t *testing.T) testEnv {
	server, serverDB := setupNewServer(t)

	return setupClient(t, server, serverDB)
}

// setupClient creates an isolated client syncing with the given server
func setupClient(t *testing.T, server *httptest.Server, serverDB *gorm.DB) testEnv {
	tmpDir := t.TempDir()

	cmdOpts := clitest.RunNotesyncCmdOptions{
		Env: []string{
			fmt.Sprintf("XDG_CONFIG_HOME=%s", tmpDir),
			fmt.Sprintf("XDG_DATA_HOME=%s", tmpDir),
			fmt.Sprintf("XDG_CACHE_HOME=%s", tmpDir),
		},
	}

	return testEnv{
		DBPath:   filepath.Join(tmpDir, consts.AppDirName, consts.DBFileName),
		CmdOpts:  cmdOpts,
		Server:   server,
		ServerDB: serverDB,
		TmpDir:   tmpDir,
	}
}

// setupNewServer creates a new server with its own database
func setupNewServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	db := apitest.InitMemoryDB(t)
	a := app.NewTest(db)

	server, err := controllers.NewServer(&a)
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing server"))
	}
	t.Cleanup(server.Close)

	return server, db
}

// switchToNewServer points the client to a new empty server
func switchToNewServer(t *testing.T, env *testEnv) {
	env.Server, env.ServerDB = setupNewServer(t)
}

// cliArgs prefixes the arguments with the database path and the endpoint of
// the client
func cliArgs(env testEnv, arg ...string) []string {
	return append([]string{"--dbPath", env.DBPath, "--apiEndpoint", env.Server.URL}, arg...)
}

// runCLI runs the CLI for the client and fails the test if it fails
func runCLI(t *testing.T, env testEnv, arg ...string) {
	clitest.RunNotesyncCmd(t, env.CmdOpts, cliBinaryName, cliArgs(env, arg...)...)
}

// runCLIErr runs the CLI for the client and returns its error
func runCLIErr(t *testing.T, env testEnv, arg ...string) error {
	cmd, _, _, err := clitest.NewNotesyncCmd(env.CmdOpts, cliBinaryName, cliArgs(env, arg...)...)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting command"))
	}

	return cmd.Run()
}

// withDB opens the client database for the duration of fn
func withDB(t *testing.T, env testEnv, fn func(db *cliDatabase.DB)) {
	db := clitest.MustOpenDatabase(t, env.DBPath)
	defer db.Close()

	fn(db)
}

// localNotes returns every note in the client database
func localNotes(t *testing.T, env testEnv) []cliDatabase.Note {
	var ret []cliDatabase.Note

	withDB(t, env, func(db *cliDatabase.DB) {
		notes, err := cliDatabase.QueryNotes(db, "ORDER BY created_at ASC")
		if err != nil {
			t.Fatal(errors.Wrap(err, "querying local notes"))
		}
		ret = notes
	})

	return ret
}

// mustLocalNote returns the client note with the given id
func mustLocalNote(t *testing.T, env testEnv, id string) cliDatabase.Note {
	var ret cliDatabase.Note

	withDB(t, env, func(db *cliDatabase.DB) {
		n, err := cliDatabase.GetNote(db, id)
		if err != nil {
			t.Fatal(errors.Wrapf(err, "finding local note %s", id))
		}
		ret = n
	})

	return ret
}

// hasLocalNote returns true if the client database has the note
func hasLocalNote(t *testing.T, env testEnv, id string) bool {
	var ret bool

	withDB(t, env, func(db *cliDatabase.DB) {
		_, err := cliDatabase.GetNote(db, id)
		if err != nil && err != sql.ErrNoRows {
			t.Fatal(errors.Wrapf(err, "finding local note %s", id))
		}
		ret = err == nil
	})

	return ret
}

// countTombstones returns the number of pending deletions of the client
func countTombstones(t *testing.T, env testEnv) int {
	var ret int

	withDB(t, env, func(db *cliDatabase.DB) {
		cliDatabase.MustScan(t, "counting tombstones", db.QueryRow("SELECT count(*) FROM tombstones"), &ret)
	})

	return ret
}

// addNote adds a note on the client and returns its id
func addNote(t *testing.T, env testEnv, title, content string) string {
	runCLI(t, env, "add", title, "-c", content)

	var id string
	withDB(t, env, func(db *cliDatabase.DB) {
		cliDatabase.MustScan(t, "finding the added note", db.QueryRow("SELECT id FROM notes WHERE title = ?", title), &id)
	})

	return id
}

// serverNote returns the server copy of the note, or nil if the server
// does not have it
func serverNote(t *testing.T, env testEnv, id string) *database.Note {
	var ret database.Note
	err := env.ServerDB.Where("uuid = ?", id).First(&ret).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatal(errors.Wrapf(err, "finding server note %s", id))
	}

	return &ret
}

// apiPutNote replaces the note on the server as another client would
func apiPutNote(t *testing.T, env testEnv, n presenters.Note) {
	payload, err := json.Marshal(n)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling note"))
	}

	endpoint := fmt.Sprintf("%s/notes/%s", env.Server.URL, n.ID)
	req, err := http.NewRequest("PUT", endpoint, strings.NewReader(string(payload)))
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing http request"))
	}
	req.Header.Set("Content-Type", "application/json")

	res := apitest.HTTPDo(t, req)
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		bs, err := io.ReadAll(res.Body)
		if err != nil {
			t.Fatal(errors.Wrap(err, "reading response body for error"))
		}

		t.Fatalf("putting note %s. HTTP status %d. Message: %s", n.ID, res.StatusCode, string(bs))
	}
}

// presentLocal converts a client note to the payload sent to the server
func presentLocal(n cliDatabase.Note) presenters.Note {
	return presenters.Note{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// later returns a time the test will not reach
func later() time.Time {
	return time.Now().UTC().Add(time.Hour)
}
