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

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/resolve"
	"github.com/dnote/notesync/pkg/cli/utils/diff"
	"github.com/pkg/errors"
)

// Report summarizes a campaign
type Report struct {
	// Synced is the number of dirty notes confirmed equal to the remote
	Synced int
	// Failed is the number of dirty notes left in error
	Failed int
	// Superseded is the number of dirty notes edited locally while being
	// reconciled. They stay dirty for the next campaign.
	Superseded int
	// Aborted is the number of dirty notes not processed because the remote
	// became unreachable
	Aborted int
	// Deleted is the number of pending deletions confirmed by the remote
	Deleted int
	// DeleteFailed is the number of pending deletions kept for a retry
	DeleteFailed int
	// Pulled is the number of remote notes inserted or refreshed locally
	Pulled int
	// PullFailed reports whether fetching remote-only notes failed
	PullFailed bool
}

func (r Report) String() string {
	return fmt.Sprintf("synced %d, failed %d, superseded %d, aborted %d, deleted %d, delete failed %d, pulled %d",
		r.Synced, r.Failed, r.Superseded, r.Aborted, r.Deleted, r.DeleteFailed, r.Pulled)
}

// outcome is the result of reconciling a single note
type outcome int

const (
	outcomeSynced outcome = iota
	outcomeSuperseded
	outcomeFailed
)

// canContinue reports whether the campaign may issue another request. An
// in-flight request is never interrupted by going offline; only the notes
// after it are skipped.
func (e *Engine) canContinue(ctx context.Context) bool {
	return ctx.Err() == nil && e.network.Online()
}

func (e *Engine) campaign(ctx context.Context) (Report, error) {
	var report Report

	aborted, err := e.drainTombstones(ctx, &report)
	if err != nil {
		return report, errors.Wrap(err, "propagating deletions")
	}

	notes, err := e.store.GetUnsynced()
	if err != nil {
		return report, errors.Wrap(err, "reading dirty notes")
	}

	for i, n := range notes {
		if aborted || !e.canContinue(ctx) {
			aborted = true
			report.Aborted = len(notes) - i
			for _, rest := range notes[i:] {
				e.setStatus(rest.ID, Idle)
			}
			break
		}

		switch e.reconcile(ctx, n) {
		case outcomeSynced:
			report.Synced++
		case outcomeSuperseded:
			report.Superseded++
		case outcomeFailed:
			report.Failed++
		}
	}

	if e.pull && !aborted && e.canContinue(ctx) {
		if err := e.pullRemote(ctx, &report); err != nil {
			log.Warnf("fetching remote notes: %s\n", err.Error())
			report.PullFailed = true
		}
	}

	if err := e.store.SetSystem(consts.SystemLastCampaignAt, database.ToTS(e.clock.Now())); err != nil {
		return report, errors.Wrap(err, "recording the campaign time")
	}

	log.Debug("campaign finished: %s\n", report)

	return report, nil
}

// drainTombstones propagates pending local deletions to the remote. A
// deletion that fails is kept for the next campaign. It reports whether the
// campaign was aborted.
func (e *Engine) drainTombstones(ctx context.Context, report *Report) (bool, error) {
	tombstones, err := e.store.Tombstones()
	if err != nil {
		return false, errors.Wrap(err, "reading tombstones")
	}

	for _, ts := range tombstones {
		if !e.canContinue(ctx) {
			return true, nil
		}

		if err := e.remote.Delete(ctx, ts.NoteID); err != nil {
			log.Debug("deleting note %s remotely: %s\n", ts.NoteID, err.Error())
			report.DeleteFailed++
			continue
		}

		if err := e.store.ClearTombstone(ts.NoteID); err != nil {
			log.Errorf("clearing the tombstone of note %s: %s\n", ts.NoteID, err.Error())
			report.DeleteFailed++
			continue
		}

		report.Deleted++
	}

	return false, nil
}

func (e *Engine) fail(id string, err error) outcome {
	log.Debug("note %s failed to sync: %s\n", id, err.Error())
	e.setStatus(id, Error)

	if err := e.store.RecordFailure(id, err); err != nil {
		log.Errorf("recording the failure of note %s: %s\n", id, err.Error())
	}

	return outcomeFailed
}

func (e *Engine) succeed(id string) outcome {
	e.setStatus(id, Synced)

	if err := e.store.ClearFailure(id); err != nil {
		log.Errorf("clearing the failure of note %s: %s\n", id, err.Error())
	}

	return outcomeSynced
}

// reconcile brings a single dirty note in line with the remote. Every local
// write is conditional on the note still having the updatedAt read at the
// start of the campaign, so a concurrent edit is never overwritten.
func (e *Engine) reconcile(ctx context.Context, local database.Note) outcome {
	e.setStatus(local.ID, Syncing)

	remote, err := e.remote.Get(ctx, local.ID)
	if err != nil {
		return e.fail(local.ID, errors.Wrap(err, "fetching remote note"))
	}

	var applied bool

	if remote == nil {
		if err := e.remote.Create(ctx, local); err != nil {
			return e.fail(local.ID, errors.Wrap(err, "creating remote note"))
		}

		applied, err = e.store.MarkSynced(local.ID, local.UpdatedAt)
		if err != nil {
			return e.fail(local.ID, err)
		}
	} else {
		remote.ID = local.ID

		switch resolve.Resolve(local, *remote) {
		case resolve.LocalWins:
			if err := e.remote.Update(ctx, local.ID, local); err != nil {
				return e.fail(local.ID, errors.Wrap(err, "updating remote note"))
			}

			applied, err = e.store.MarkSynced(local.ID, local.UpdatedAt)
			if err != nil {
				return e.fail(local.ID, err)
			}
		case resolve.RemoteWins:
			reportLoss(local, *remote)

			applied, err = e.store.ApplyRemote(*remote, local.UpdatedAt)
			if err != nil {
				return e.fail(local.ID, err)
			}
		}
	}

	if !applied {
		log.Debug("note %s was edited during reconciliation; keeping it dirty\n", local.ID)
		e.setStatus(local.ID, Idle)
		return outcomeSuperseded
	}

	return e.succeed(local.ID)
}

// reportLoss warns that local edits are about to be replaced by a newer
// remote version
func reportLoss(local, remote database.Note) {
	if local.SameContent(remote) {
		return
	}

	stat := diff.Summarize(local.Content, remote.Content)
	log.Warnf("note %s: local edits from %s replaced by the remote version from %s (%s)\n",
		local.ID, local.UpdatedAt.Format(time.RFC3339), remote.UpdatedAt.Format(time.RFC3339), stat)
}

// pullRemote applies the notes the remote received since the last pull. The
// watermark is the remote's update sequence number rather than updatedAt, so
// a note written offline elsewhere and pushed late is still fetched.
func (e *Engine) pullRemote(ctx context.Context, report *Report) error {
	var afterUSN int64
	if _, err := e.store.GetSystem(consts.SystemLastPullUSN, &afterUSN); err != nil {
		return errors.Wrap(err, "reading the pull watermark")
	}

	resp, err := e.remote.List(ctx, afterUSN)
	if err != nil {
		return errors.Wrap(err, "listing remote notes")
	}

	for _, n := range resp.Notes {
		applied, err := e.store.ApplyPulled(n)
		if err != nil {
			return errors.Wrapf(err, "applying note %s", n.ID)
		}
		if applied {
			report.Pulled++
			e.succeed(n.ID)
		}
	}

	if resp.MaxUSN > afterUSN {
		if err := e.store.SetSystem(consts.SystemLastPullUSN, resp.MaxUSN); err != nil {
			return errors.Wrap(err, "saving the pull watermark")
		}
	}

	return nil
}
