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

// Package diff computes line-based differences between two versions of a note
package diff

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// DiffEqual represents an equal diff
	DiffEqual = diffmatchpatch.DiffEqual
	// DiffInsert represents an insert diff
	DiffInsert = diffmatchpatch.DiffInsert
	// DiffDelete represents a delete diff
	DiffDelete = diffmatchpatch.DiffDelete
)

// Do computes line-by-line diff between two strings
func Do(s1, s2 string) (diffs []diffmatchpatch.Diff) {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = time.Hour

	s1Chars, s2Chars, arr := dmp.DiffLinesToRunes(s1, s2)
	diffs = dmp.DiffMainRunes(s1Chars, s2Chars, false)
	diffs = dmp.DiffCharsToLines(diffs, arr)

	return diffs
}

// Stat is the number of lines removed and added going from one text to another
type Stat struct {
	Removed int
	Added   int
}

// String renders the stat the way `git diff --stat` summarises a file
func (s Stat) String() string {
	return fmt.Sprintf("-%d +%d", s.Removed, s.Added)
}

// IsZero reports whether the two texts were identical
func (s Stat) IsZero() bool {
	return s.Removed == 0 && s.Added == 0
}

func countLines(text string) int {
	if text == "" {
		return 0
	}

	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}

	return n
}

// Summarize counts the lines that would be removed from `from` and added from `to`
func Summarize(from, to string) Stat {
	var ret Stat

	for _, d := range Do(from, to) {
		switch d.Type {
		case DiffDelete:
			ret.Removed += countLines(d.Text)
		case DiffInsert:
			ret.Added += countLines(d.Text)
		}
	}

	return ret
}

// Render returns the diff as text with each changed line prefixed by - or +.
// Unchanged lines are omitted.
func Render(from, to string) string {
	var b strings.Builder

	for _, d := range Do(from, to) {
		var prefix string
		switch d.Type {
		case DiffDelete:
			prefix = "-"
		case DiffInsert:
			prefix = "+"
		default:
			continue
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			b.WriteString(prefix)
			b.WriteString(strings.TrimSuffix(line, "\n"))
			b.WriteString("\n")
		}
	}

	return b.String()
}
