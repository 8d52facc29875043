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
	"os"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/engine"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/network"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  notesync sync

  * Also fetch the notes created on other devices
  notesync sync --pull`

var pullFlag bool
var quietFlag bool

// NewCmd returns a new sync command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Push local changes to the remote",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&pullFlag, "pull", "p", false, "fetch notes that only exist on the remote")
	f.BoolVarP(&quietFlag, "quiet", "q", false, "do not list the notes after syncing")

	return cmd
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		c := cmd.Context()

		s := infra.NewStore(ctx)
		remote := infra.NewClient(ctx)

		monitor := network.NewMonitor(network.Check(c, remote, ctx.RequestTimeout))
		defer monitor.Close()

		e := engine.New(engine.Params{
			Store:   s,
			Remote:  remote,
			Network: monitor,
			Clock:   ctx.Clock,
			Pull:    pullFlag || ctx.Pull,
		})

		log.Infof("syncing with %s\n", ctx.APIEndpoint)

		report, err := e.Run(c)
		if errors.Is(err, engine.ErrOffline) {
			return errors.Wrapf(err, "cannot reach %s; local changes are kept", ctx.APIEndpoint)
		}
		if err != nil {
			return errors.Wrap(err, "syncing")
		}

		output.CampaignReport(report)

		if quietFlag {
			return nil
		}

		notes, err := s.GetAll()
		if err != nil {
			return errors.Wrap(err, "querying notes")
		}
		failures, err := s.Failures()
		if err != nil {
			return errors.Wrap(err, "querying sync failures")
		}
		output.NoteList(os.Stdout, notes, output.Statuses(failures, e.Statuses()))

		return nil
	}
}
