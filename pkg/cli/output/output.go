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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/engine"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/utils"
)

const timeFormat = "Jan 2, 2006 3:04pm (MST)"

// shortIDLen is the length of the id prefix shown in lists
const shortIDLen = 8

// Status labels shown to the user
const (
	StatusSynced   = "synced"
	StatusUnsynced = "unsynced"
	StatusSyncing  = "syncing"
	StatusError    = "error"
)

// StatusOf combines the stored synced flag of a note with the live status
// of the sync engine into the label shown to the user
func StatusOf(n database.Note, live engine.Status) string {
	switch live {
	case engine.Syncing:
		return StatusSyncing
	case engine.Error:
		if !n.Synced {
			return StatusError
		}
	}

	if n.Synced {
		return StatusSynced
	}

	return StatusUnsynced
}

func colorStatus(label string) string {
	switch label {
	case StatusSynced:
		return log.ColorGreen.Sprint(label)
	case StatusSyncing:
		return log.ColorBlue.Sprint(label)
	case StatusError:
		return log.ColorRed.Sprint(label)
	default:
		return log.ColorYellow.Sprint(label)
	}
}

// ShortID returns the prefix of the id shown in lists
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}

	return id[:shortIDLen]
}

// Headline returns the title of a note, or the first line of its content
// if it has no title
func Headline(n database.Note) string {
	if n.Title != "" {
		return n.Title
	}

	first := strings.SplitN(n.Content, "\n", 2)[0]
	if first == "" {
		return "(untitled)"
	}

	return first
}

// Search returns the notes whose title or content contains the query,
// ignoring case. An empty query matches every note.
func Search(notes []database.Note, query string) []database.Note {
	if query == "" {
		return notes
	}

	ret := []database.Note{}
	for _, n := range notes {
		if utils.ContainsFold(n.Title, query) || utils.ContainsFold(n.Content, query) {
			ret = append(ret, n)
		}
	}

	return ret
}

// Statuses merges the failures recorded by earlier campaigns with the live
// statuses of a running engine, which may be nil. A live status wins.
func Statuses(failures map[string]database.SyncError, live map[string]engine.Status) map[string]engine.Status {
	ret := make(map[string]engine.Status, len(failures)+len(live))
	for id := range failures {
		ret[id] = engine.Error
	}
	for id, s := range live {
		ret[id] = s
	}

	return ret
}

// NoteList prints one line per note with its sync status
func NoteList(w io.Writer, notes []database.Note, statuses map[string]engine.Status) {
	for _, n := range notes {
		label := StatusOf(n, statuses[n.ID])

		fmt.Fprintf(w, "%s %-8s  %s %s\n",
			log.ColorGray.Sprint(ShortID(n.ID)),
			colorStatus(label),
			Headline(n),
			log.ColorGray.Sprintf("(%s)", n.UpdatedAt.Local().Format(timeFormat)),
		)
	}
}

// NoteInfo prints a note information
func NoteInfo(w io.Writer, n database.Note, live engine.Status) {
	log.Infof("note id: %s\n", n.ID)
	log.Infof("created at: %s\n", n.CreatedAt.Local().Format(timeFormat))
	log.Infof("updated at: %s\n", n.UpdatedAt.Local().Format(timeFormat))
	log.Infof("status: %s\n", StatusOf(n, live))

	fmt.Fprintf(w, "\n# %s\n", n.Title)
	fmt.Fprintf(w, "\n------------------------content------------------------\n")
	fmt.Fprintf(w, "%s", n.Content)
	fmt.Fprintf(w, "\n-------------------------------------------------------\n")
}

// CampaignReport prints the summary of a sync campaign
func CampaignReport(r engine.Report) {
	if r.Failed > 0 || r.DeleteFailed > 0 || r.PullFailed {
		log.Warnf("%s\n", r)
		return
	}
	if r.Aborted > 0 {
		log.Warnf("went offline; %s\n", r)
		return
	}

	log.Successf("%s\n", r)
}
