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

package edit

import (
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/store"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/dnote/notesync/pkg/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string
var titleFlag string

var example = `
  * Edit a note by id, or by a unique prefix of its id
  notesync edit 3e065d55

  * Edit a note without launching an editor
  notesync edit 3e065d55 -c "new content"

  * Rename a note
  notesync edit 3e065d55 -t "new title"
`

// NewCmd returns a new edit command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note id>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "a new content for the note")
	f.StringVarP(&titleFlag, "title", "t", "", "a new title for the note")

	return cmd
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

func runFlags(s *store.Store, n database.Note) (database.Note, error) {
	if titleFlag != "" {
		n.Title = titleFlag
	}
	if contentFlag != "" {
		n.Content = contentFlag
	}

	return s.Put(n)
}

func runEditor(ctx context.NotesCtx, s *store.Store, n database.Note) (database.Note, error) {
	commit := func(draft database.Note) error {
		_, err := s.Put(draft)
		return err
	}

	if _, err := ui.EditNote(ctx, n, commit); err != nil {
		return database.Note{}, err
	}

	return s.Get(n.ID)
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate.Title(titleFlag); err != nil {
			return errors.Wrap(err, "invalid title")
		}

		s := infra.NewStore(ctx)

		n, err := s.FindByPrefix(args[0])
		if err != nil {
			return errors.Wrapf(err, "finding note %s", args[0])
		}

		before := n.UpdatedAt
		if titleFlag != "" || contentFlag != "" {
			n, err = runFlags(s, n)
		} else {
			n, err = runEditor(ctx, s, n)
		}
		if err != nil {
			return errors.Wrap(err, "editing note")
		}

		if n.UpdatedAt.Equal(before) {
			log.Plainf("Nothing changed\n")
			return nil
		}

		log.Successf("edited %s\n", output.ShortID(n.ID))

		return nil
	}
}
