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

package main

import (
	"os"
	"strings"

	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/dnote/notesync/pkg/cli/cmd/add"
	"github.com/dnote/notesync/pkg/cli/cmd/edit"
	"github.com/dnote/notesync/pkg/cli/cmd/ls"
	"github.com/dnote/notesync/pkg/cli/cmd/remove"
	"github.com/dnote/notesync/pkg/cli/cmd/root"
	"github.com/dnote/notesync/pkg/cli/cmd/sync"
	"github.com/dnote/notesync/pkg/cli/cmd/version"
	"github.com/dnote/notesync/pkg/cli/cmd/view"
	"github.com/dnote/notesync/pkg/cli/cmd/watch"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseFlag extracts the value of a persistent flag from command line
// arguments regardless of where it appears (before or after subcommand).
// Returns empty string if not found.
func parseFlag(args []string, name string) string {
	long := "--" + name
	for i, arg := range args {
		// Handle --name=value
		if strings.HasPrefix(arg, long+"=") {
			return strings.TrimPrefix(arg, long+"=")
		}
		// Handle --name value
		if arg == long && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	// Persistent flags are needed before the database and the config are
	// loaded, but root.ParseFlags only parses flags before the subcommand.
	dbPath := parseFlag(os.Args[1:], "dbPath")

	endpoint := apiEndpoint
	if v := parseFlag(os.Args[1:], "apiEndpoint"); v != "" {
		endpoint = v
	}

	ctx, err := infra.Init(versionTag, endpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(remove.NewCmd(*ctx))
	root.Register(edit.NewCmd(*ctx))
	root.Register(add.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))
	root.Register(view.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
