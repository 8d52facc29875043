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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/pkg/errors"
)

func TestGetTmpContentPath(t *testing.T) {
	t.Run("no collision", func(t *testing.T) {
		ctx := context.InitTestCtx(t)

		res, err := GetTmpContentPath(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		expected := filepath.Join(ctx.Paths.Cache, consts.AppDirName, "NOTESYNC_DRAFT_0.md")
		assert.Equal(t, res, expected, "filename did not match")
	})

	t.Run("two existing sessions", func(t *testing.T) {
		ctx := context.InitTestCtx(t)

		for _, name := range []string{"NOTESYNC_DRAFT_0.md", "NOTESYNC_DRAFT_1.md"} {
			p := filepath.Join(ctx.Paths.Cache, consts.AppDirName, name)
			if err := os.WriteFile(p, nil, 0644); err != nil {
				t.Fatal(errors.Wrap(err, "preparing the conflicting file"))
			}
		}

		res, err := GetTmpContentPath(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		expected := filepath.Join(ctx.Paths.Cache, consts.AppDirName, "NOTESYNC_DRAFT_2.md")
		assert.Equal(t, res, expected, "filename did not match")
	})
}

func TestDraftFormat(t *testing.T) {
	testCases := []struct {
		title   string
		content string
		raw     string
	}{
		{title: "Groceries", content: "milk\neggs", raw: "Groceries\n\nmilk\neggs\n"},
		{title: "Title only", content: "", raw: "Title only\n"},
		{title: "", content: "body", raw: "\n\nbody\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, FormatDraft(tc.title, tc.content), tc.raw, "formatted draft mismatch")

			title, content := ParseDraft(tc.raw)
			assert.Equal(t, title, tc.title, "title mismatch")
			assert.Equal(t, content, tc.content, "content mismatch")
		})
	}

	title, content := ParseDraft("  Windows  \r\n\r\nline one\r\nline two\r\n")
	assert.Equal(t, title, "Windows", "title mismatch")
	assert.Equal(t, content, "line one\nline two", "content mismatch")
}

// writeEditor creates a shell script that acts as an editor writing the
// given text into the file it is given
func writeEditor(t *testing.T, text string) string {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "text")
	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	script := filepath.Join(dir, "editor.sh")
	body := "#!/bin/sh\ncat '" + textPath + "' > \"$1\"\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}

	return "sh " + script
}

func TestEditNote(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.Editor = writeEditor(t, "Groceries\n\nmilk\neggs\n")

	var mu sync.Mutex
	var commits []database.Note
	commit := func(d database.Note) error {
		mu.Lock()
		defer mu.Unlock()

		commits = append(commits, d)
		return nil
	}

	n := database.Note{ID: "n1", Title: "old", Content: "old body"}
	got, err := EditNote(ctx, n, commit)
	if err != nil {
		t.Fatal(err)
	}

	expected := database.Note{ID: "n1", Title: "Groceries", Content: "milk\neggs"}
	assert.DeepEqual(t, got, expected, "edited note mismatch")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, len(commits) > 0, true, "the final content should be committed")
	assert.DeepEqual(t, commits[len(commits)-1], expected, "last commit mismatch")

	matches, err := filepath.Glob(filepath.Join(ctx.Paths.Cache, consts.AppDirName, "NOTESYNC_DRAFT_*"))
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(matches), 0, "draft file should be removed")
}

func TestEditNoteEditorFailure(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.Editor = "false"

	committed := false
	_, err := EditNote(ctx, database.Note{ID: "n1", Title: "t"}, func(d database.Note) error {
		committed = true
		return nil
	})

	assert.NotEqual(t, err, nil, "editor failure should be surfaced")
	assert.Equal(t, committed, false, "nothing should be committed")
}

func TestEditNoteRequiresID(t *testing.T) {
	ctx := context.InitTestCtx(t)

	_, err := EditNote(ctx, database.Note{Title: "t"}, func(d database.Note) error { return nil })
	assert.NotEqual(t, err, nil, "missing id should be rejected")
}
