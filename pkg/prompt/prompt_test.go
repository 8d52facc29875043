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

package prompt

import (
	"strings"
	"testing"

	"github.com/dnote/notesync/pkg/assert"
)

func TestFormatQuestion(t *testing.T) {
	assert.Equal(t, FormatQuestion("Delete note?", false), "Delete note? (y/N)", "pessimistic question mismatch")
	assert.Equal(t, FormatQuestion("Sync now?", true), "Sync now? (Y/n)", "optimistic question mismatch")
}

func TestReadYesNo(t *testing.T) {
	testCases := []struct {
		input      string
		optimistic bool
		expected   bool
	}{
		{input: "y\n", optimistic: false, expected: true},
		{input: "YES\n", optimistic: false, expected: true},
		{input: "n\n", optimistic: true, expected: false},
		{input: "\n", optimistic: false, expected: false},
		{input: "\n", optimistic: true, expected: true},
		{input: "", optimistic: true, expected: true},
		{input: "", optimistic: false, expected: false},
		{input: "maybe\n", optimistic: true, expected: false},
		{input: "  y  ", optimistic: false, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ReadYesNo(strings.NewReader(tc.input), tc.optimistic)
			assert.Equal(t, err, nil, "ReadYesNo should not fail")
			assert.Equal(t, got, tc.expected, "answer mismatch")
		})
	}
}
