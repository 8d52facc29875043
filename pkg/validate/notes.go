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

// Package validate checks user supplied note fields
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxTitleLength is the maximum number of characters in a note title
const MaxTitleLength = 200

// MaxIDLength is the maximum number of bytes in a note id
const MaxIDLength = 128

// ErrTitleMultiline is an error for a title that has linebreaks
var ErrTitleMultiline = errors.New("The title contains multiple lines")

// ErrTitleTooLong is an error for a title longer than MaxTitleLength
var ErrTitleTooLong = errors.New("The title is too long")

// ErrIDEmpty is an error for an empty note id
var ErrIDEmpty = errors.New("The note id is empty")

// ErrIDInvalid is an error for a note id that cannot be used in a URL path
// segment
var ErrIDInvalid = errors.New("The note id contains invalid characters")

// ErrIDTooLong is an error for a note id longer than MaxIDLength
var ErrIDTooLong = errors.New("The note id is too long")

// Title validates a note title. The title may be empty.
func Title(title string) error {
	if strings.ContainsAny(title, "\r\n") {
		return ErrTitleMultiline
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}

	return nil
}

// NoteID validates a note id
func NoteID(id string) error {
	if id == "" {
		return ErrIDEmpty
	}

	if len(id) > MaxIDLength {
		return ErrIDTooLong
	}

	if id == "." || id == ".." || strings.ContainsAny(id, "/?#% \t\r\n") {
		return ErrIDInvalid
	}

	return nil
}
