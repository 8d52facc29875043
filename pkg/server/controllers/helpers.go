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
	"encoding/json"
	"net/http"

	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

// errInvalidPayload is an error for a request body or query that cannot be decoded
var errInvalidPayload = errors.New("invalid payload")

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// parseQuery decodes the URL query of the request into dst
func parseQuery(r *http.Request, dst interface{}) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.Wrap(errInvalidPayload, err.Error())
	}

	return nil
}

// parseJSON decodes the JSON body of the request into dst
func parseJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.Wrap(errInvalidPayload, "empty body")
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(errInvalidPayload, err.Error())
	}

	return nil
}

// respondJSON encodes the given payload as the response with the status
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// getStatusCode returns the HTTP status code for the error
func getStatusCode(err error) int {
	var verr *app.ValidationError

	switch {
	case errors.Is(err, errInvalidPayload), errors.As(err, &verr), errors.Is(err, app.ErrIDMismatch):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleJSONError responds with the status code matching the error. Internal
// errors are logged and their details are not sent.
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	statusCode := getStatusCode(err)

	if statusCode == http.StatusInternalServerError {
		log.ErrorWrap(err, msg)
		http.Error(w, "Internal server error", statusCode)
		return
	}

	http.Error(w, err.Error(), statusCode)
}
