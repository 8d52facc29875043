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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Note is a model for a note. AddedOn and EditedOn are the client supplied
// creation and modification times in unix nanoseconds; the embedded Model
// times record when the server stored the row. USN orders the writes as the
// server received them.
type Note struct {
	Model
	UUID     string `json:"uuid" gorm:"uniqueIndex;type:text;not null"`
	Title    string `json:"title" gorm:"not null;default:''"`
	Body     string `json:"content" gorm:"not null;default:''"`
	AddedOn  int64  `json:"added_on" gorm:"not null"`
	EditedOn int64  `json:"edited_on" gorm:"index;not null"`
	USN      int64  `json:"-" gorm:"index;not null;default:0"`
	Client   string `json:"-" gorm:"index"`
}

// SystemMaxUSN is the key of the last update sequence number handed out
const SystemMaxUSN = "max_usn"

// System is a server wide counter
type System struct {
	Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value int64  `gorm:"not null;default:0"`
}
