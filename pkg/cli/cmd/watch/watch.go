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

package watch

import (
	stdctx "context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/engine"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/network"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var example = `
  * Keep notes in sync until interrupted
  notesync watch

  * Also fetch the notes created on other devices
  notesync watch --pull`

var pullFlag bool

// NewCmd returns a new watch command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Sync in the background whenever the remote is reachable",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&pullFlag, "pull", "p", false, "fetch notes that only exist on the remote")

	return cmd
}

// statusPrinter prints status transitions of notes, skipping repeats
type statusPrinter struct {
	mu   sync.Mutex
	last map[string]engine.Status
}

func (p *statusPrinter) print(id string, st engine.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.last[id]; ok && prev == st {
		return
	}
	p.last[id] = st

	switch st {
	case engine.Synced:
		log.Successf("%s %s\n", output.ShortID(id), st)
	case engine.Error:
		log.Errorf("%s %s\n", output.ShortID(id), st)
	default:
		log.Infof("%s %s\n", output.ShortID(id), st)
	}
}

func onCampaign(report engine.Report, err error) {
	if err != nil {
		log.Errorf("sync failed: %s\n", err.Error())
		return
	}

	output.CampaignReport(report)
}

func onNetwork(online bool) {
	if online {
		log.Infof("remote is reachable\n")
	} else {
		log.Warnf("remote is unreachable; changes are kept locally\n")
	}
}

// schedule registers the periodic jobs of the daemon: health probes feeding
// the monitor, and retries of notes left dirty by earlier campaigns
func schedule(ctx context.NotesCtx, c *cron.Cron, run stdctx.Context, prober *network.Prober, e *engine.Engine) error {
	probeSpec := "@every " + ctx.ProbeInterval.String()
	if err := c.AddFunc(probeSpec, func() { prober.Probe(run) }); err != nil {
		return errors.Wrapf(err, "scheduling health probes with %s", probeSpec)
	}

	if err := c.AddFunc(ctx.RetrySchedule, func() { e.Trigger(run) }); err != nil {
		return errors.Wrapf(err, "scheduling retries with %s", ctx.RetrySchedule)
	}

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, run := errgroup.WithContext(sigCtx)

		s := infra.NewStore(ctx)
		remote := infra.NewClient(ctx)

		monitor := network.NewMonitor(network.Check(run, remote, ctx.RequestTimeout))
		defer monitor.Close()

		printer := &statusPrinter{last: map[string]engine.Status{}}
		e := engine.New(engine.Params{
			Store:      s,
			Remote:     remote,
			Network:    monitor,
			Clock:      ctx.Clock,
			Pull:       pullFlag || ctx.Pull,
			OnStatus:   printer.print,
			OnCampaign: onCampaign,
		})

		unsubscribe := monitor.Subscribe(e.Listener(run))
		defer unsubscribe()
		unsubscribeLog := monitor.Subscribe(onNetwork)
		defer unsubscribeLog()

		prober := network.NewProber(remote, monitor, ctx.RequestTimeout)

		c := cron.New()
		if err := schedule(ctx, c, run, prober, e); err != nil {
			return err
		}

		log.Infof("watching %s (press Ctrl+C to stop)\n", ctx.APIEndpoint)
		onNetwork(monitor.Online())
		e.Trigger(run)

		g.Go(func() error {
			c.Start()
			<-run.Done()
			c.Stop()

			return nil
		})

		if err := g.Wait(); err != nil {
			return errors.Wrap(err, "watching")
		}

		e.Wait()
		log.Infof("stopped\n")

		return nil
	}
}
