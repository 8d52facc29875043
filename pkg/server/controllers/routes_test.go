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

package controllers

import (
	"net/http"
	"testing"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/testutils"
)

func TestHealth(t *testing.T) {
	_, endpoint := setupServer(t)

	res := testutils.HTTPDo(t, testutils.MakeReq(endpoint, "GET", "/health", ""))

	assert.StatusCodeEquals(t, res, http.StatusOK, "")
	assert.Equal(t, readBody(t, res), "ok", "body mismatch")
}

func TestRoutes(t *testing.T) {
	testCases := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{
			method:         "GET",
			path:           "/foo",
			expectedStatus: http.StatusNotFound,
		},
		{
			method:         "PATCH",
			path:           "/notes/n1",
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			method:         "GET",
			path:           "/notes/n1/extra",
			expectedStatus: http.StatusNotFound,
		},
	}

	_, endpoint := setupServer(t)

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := testutils.MakeReq(endpoint, tc.method, tc.path, "")
			res := testutils.HTTPDo(t, req)
			res.Body.Close()

			assert.StatusCodeEquals(t, res, tc.expectedStatus, "status code mismatch")
		})
	}
}

func TestNewRouter_InvalidApp(t *testing.T) {
	a := app.App{}

	_, err := NewServer(&a)

	assert.ErrorIs(t, err, app.ErrEmptyClock, "error mismatch")
}
