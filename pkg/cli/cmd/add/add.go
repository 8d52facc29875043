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

package add

import (
	"os"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/engine"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/store"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/dnote/notesync/pkg/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string

var example = `
 notesync add groceries

 notesync add groceries -c "milk, eggs"

 echo "a branch is just a pointer to a commit" | notesync add git
 # or
 notesync add git << EOF
 pull is fetch with a merge
 EOF`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <title?>",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "The new content for the note")

	return cmd
}

// getContent returns the content given by the flag or piped to the command.
// It returns false if neither is present.
func getContent() (string, bool, error) {
	if contentFlag != "" {
		return contentFlag, true, nil
	}

	if ui.IsPiped() {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", false, errors.Wrap(err, "Failed to get piped input")
		}
		return c, true, nil
	}

	return "", false, nil
}

// editNew opens the editor on a new note. The note is saved while the user
// types.
func editNew(ctx context.NotesCtx, s *store.Store, title string) (database.Note, error) {
	id, err := utils.GenerateUUID()
	if err != nil {
		return database.Note{}, errors.Wrap(err, "generating uuid")
	}

	commit := func(draft database.Note) error {
		_, err := s.Put(draft)
		return err
	}

	n, err := ui.EditNote(ctx, database.Note{ID: id, Title: title}, commit)
	if err != nil {
		return database.Note{}, err
	}
	if n.Title == "" && n.Content == "" {
		return database.Note{}, errors.New("Empty note")
	}

	return s.Get(id)
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var title string
		if len(args) == 1 {
			title = args[0]
		}
		if err := validate.Title(title); err != nil {
			return errors.Wrap(err, "invalid title")
		}

		s := infra.NewStore(ctx)

		content, ok, err := getContent()
		if err != nil {
			return errors.Wrap(err, "getting content")
		}

		var n database.Note
		if ok {
			if title == "" && content == "" {
				return errors.New("Empty note")
			}

			n, err = s.Put(database.Note{Title: title, Content: content})
			if err != nil {
				return errors.Wrap(err, "Failed to write note")
			}
		} else {
			n, err = editNew(ctx, s, title)
			if err != nil {
				return errors.Wrap(err, "Failed to write note")
			}
		}

		log.Successf("added %s\n", output.ShortID(n.ID))
		output.NoteInfo(os.Stdout, n, engine.Idle)

		return nil
	}
}
