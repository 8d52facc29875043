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

package ui

import (
	"github.com/dnote/notesync/pkg/cli/autosave"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/pkg/errors"
)

// EditNote opens the editor on the given note, which must have an id. Saves
// made in the editor are committed through a debounced autosave task, and
// the final content is committed when the editor exits. If the editor fails,
// the pending autosave is canceled.
func EditNote(ctx context.NotesCtx, n database.Note, commit autosave.CommitFunc) (database.Note, error) {
	if n.ID == "" {
		return n, errors.New("note id is required")
	}

	fpath, err := GetTmpContentPath(ctx)
	if err != nil {
		return n, errors.Wrap(err, "getting temporarily content file path")
	}

	saver := autosave.New(ctx.DebounceDelay, commit)
	defer saver.Close()

	draft := func(raw string) database.Note {
		d := n
		d.Title, d.Content = ParseDraft(raw)
		return d
	}

	raw, err := GetEditorInput(ctx, fpath, FormatDraft(n.Title, n.Content), func(raw string) {
		saver.Schedule(draft(raw))
	})
	if err != nil {
		saver.Cancel()
		return n, errors.Wrap(err, "getting editor input")
	}

	final := draft(raw)
	saver.Schedule(final)
	if err := saver.Flush(); err != nil {
		return n, errors.Wrap(err, "saving the note")
	}

	return final, nil
}
