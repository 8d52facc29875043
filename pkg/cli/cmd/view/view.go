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

package view

import (
	"fmt"
	"os"
	"time"

	"github.com/dnote/notesync/pkg/cli/cmd/ls"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/engine"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 notesync view

 notesync view 3e065d55

 notesync view 3e065d55 --content-only
 `

var contentOnly bool

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new view command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <note id?>",
		Aliases: []string{"v"},
		Short:   "List notes or view a note",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.BoolVarP(&contentOnly, "content-only", "", false, "print the note content only")

	return cmd
}

func runNote(ctx context.NotesCtx, target string) error {
	s := infra.NewStore(ctx)

	n, err := s.FindByPrefix(target)
	if err != nil {
		return errors.Wrapf(err, "finding note %s", target)
	}

	if contentOnly {
		fmt.Fprint(os.Stdout, n.Content)
		return nil
	}

	failures, err := s.Failures()
	if err != nil {
		return errors.Wrap(err, "querying sync failures")
	}

	status := engine.Idle
	if f, ok := failures[n.ID]; ok {
		status = engine.Error
		log.Warnf("last sync failed at %s: %s\n", f.FailedAt.Local().Format(time.RFC1123), f.Message)
	}

	output.NoteInfo(os.Stdout, n, status)

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if contentOnly {
				return errors.New("--content-only flag is only valid when viewing a note")
			}

			return ls.NewRun(ctx)(cmd, args)
		}

		return runNote(ctx, args[0])
	}
}
