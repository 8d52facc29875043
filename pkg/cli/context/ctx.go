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

// Package context defines the notesync runtime context
package context

import (
	"net/http"
	"time"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// NotesCtx is a context holding the information of the current runtime
type NotesCtx struct {
	Paths          Paths
	APIEndpoint    string
	Version        string
	DB             *database.DB
	Editor         string
	Clock          clock.Clock
	HTTPClient     *http.Client
	DebounceDelay  time.Duration
	ProbeInterval  time.Duration
	RetrySchedule  string
	RequestTimeout time.Duration
	Pull           bool
}
