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

// Package consts provides definitions of constants
package consts

var (
	// AppDirName is the name of the directory containing notesync files
	AppDirName = "notesync"
	// DBFileName is a filename for the notesync SQLite database
	DBFileName = "notesync.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "notesyncrc"
	// TmpContentFileBase is the base for the filename for a draft being edited
	TmpContentFileBase = "NOTESYNC_DRAFT"
	// TmpContentFileExt is the extension for the draft file
	TmpContentFileExt = "md"

	// SystemLastPullUSN is the remote update sequence number reached by the last pull
	SystemLastPullUSN = "last_pull_usn"
	// SystemLastCampaignAt is the local time at which the last campaign finished
	SystemLastCampaignAt = "last_campaign_at"
)
