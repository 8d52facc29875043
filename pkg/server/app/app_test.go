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

package app

import (
	"fmt"
	"testing"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/dnote/notesync/pkg/server/testutils"
)

func TestValidate(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	testCases := []struct {
		app         App
		expectedErr error
	}{
		{
			app:         App{DB: db, Clock: clock.NewMock()},
			expectedErr: nil,
		},
		{
			app:         App{DB: db},
			expectedErr: ErrEmptyClock,
		},
		{
			app:         App{Clock: clock.NewMock()},
			expectedErr: ErrEmptyDB,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			err := tc.app.Validate()

			assert.Equal(t, err, tc.expectedErr, "error mismatch")
		})
	}
}
