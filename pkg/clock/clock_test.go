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

package clock

import (
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
)

func TestMock(t *testing.T) {
	c := NewMock()
	assert.Equal(t, c.Now(), time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC), "initial time mismatch")

	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	c.SetNow(ts)
	assert.Equal(t, c.Now(), ts, "SetNow mismatch")

	c.Advance(90 * time.Second)
	assert.Equal(t, c.Now(), ts.Add(90*time.Second), "Advance mismatch")
}

func TestRealClockIsUTC(t *testing.T) {
	now := New().Now()

	assert.Equal(t, now.Location(), time.UTC, "location mismatch")
	assert.Equal(t, now, now.Round(0), "monotonic reading should be stripped")
}
