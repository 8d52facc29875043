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

// Package resolve decides which replica of a note wins a conflict
package resolve

import (
	"github.com/dnote/notesync/pkg/cli/database"
)

// Resolution is the outcome of a conflict between two replicas of a note
type Resolution int

const (
	// LocalWins means the local replica is pushed to the remote
	LocalWins Resolution = iota
	// RemoteWins means the remote replica replaces the local one
	RemoteWins
)

func (r Resolution) String() string {
	switch r {
	case LocalWins:
		return "LOCAL_WINS"
	case RemoteWins:
		return "REMOTE_WINS"
	default:
		return "UNKNOWN"
	}
}

// Resolve picks the replica with the later updatedAt. Ties go to the local
// replica. Clock skew across devices is not corrected for, and the losing
// side's changes are dropped entirely.
func Resolve(local, remote database.Note) Resolution {
	if local.UpdatedAt.Before(remote.UpdatedAt) {
		return RemoteWins
	}

	return LocalWins
}
