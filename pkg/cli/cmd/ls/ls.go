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

package ls

import (
	"os"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * List all notes
 notesync ls

 * List notes mentioning a word in the title or the content
 notesync ls --search milk
 `

var searchFlag string

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new ls command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"l", "notes"},
		Short:   "List notes and their sync status",
		Example: example,
		RunE:    NewRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.StringVarP(&searchFlag, "search", "s", "", "only list notes containing the text, ignoring case")

	return cmd
}

// NewRun returns a new run function for ls
func NewRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		s := infra.NewStore(ctx)

		notes, err := s.GetAll()
		if err != nil {
			return errors.Wrap(err, "querying notes")
		}

		notes = output.Search(notes, searchFlag)
		if len(notes) == 0 {
			log.Plainf("No notes\n")
			return nil
		}

		failures, err := s.Failures()
		if err != nil {
			return errors.Wrap(err, "querying sync failures")
		}

		output.NoteList(os.Stdout, notes, output.Statuses(failures, nil))

		return nil
	}
}
