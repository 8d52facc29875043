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

// Package client provides the transport adapter for the remote note
// collection. It performs no retries; a failed call is retried by the next
// sync campaign.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrContentTypeMismatch is an error for a response in an unexpected format
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents a non-2xx response from the remote
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// TransportError is a failed remote call. It covers both an unreachable
// remote and an unexpected response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var contentTypeApplicationJSON = "application/json"

// requestOptions contains options for requests
type requestOptions struct {
	// ExpectedContentType is the Content-Type that the client is expecting
	// from the remote. Nil skips the check.
	ExpectedContentType *string
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting and the
// given per-request timeout. A zero timeout means no timeout.
func NewRateLimitedHTTPClient(timeout time.Duration) *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Client talks to the remote note collection
type Client struct {
	endpoint   string
	httpClient *http.Client
	version    string
}

// New returns a client for the remote at the given endpoint. A nil
// httpClient falls back to a rate limited client without a timeout.
func New(endpoint string, httpClient *http.Client, version string) *Client {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(0)
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: httpClient,
		version:    version,
	}
}

func (c *Client) getReq(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", c.endpoint, path)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	return req, nil
}

// checkRespErr returns an HTTPError if the response status is not 2xx
func checkRespErr(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "remote responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(string(body), "\n"),
	}
}

func checkContentType(res *http.Response, options *requestOptions) error {
	if options == nil || options.ExpectedContentType == nil {
		return nil
	}

	expected := *options.ExpectedContentType
	got, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil || got != expected {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", res.Header.Get("Content-Type"), expected)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint. The
// caller must close the body of a non-nil response.
func (c *Client) doReq(ctx context.Context, method, path string, body []byte, options *requestOptions) (*http.Response, error) {
	req, err := c.getReq(ctx, method, path, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "remote responded with an error")
	}

	if err = checkContentType(res, options); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "unexpected Content-Type")
	}

	return res, nil
}

func isNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.IsNotFound()
}

func notePath(id string) string {
	return fmt.Sprintf("/notes/%s", url.PathEscape(id))
}

func decodeBody(res *http.Response, dest interface{}) error {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading the response body")
	}

	if err = json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(err, "unmarshalling the payload")
	}

	return nil
}

// Get fetches a note from the remote. It returns nil and no error if the
// remote does not have the note.
func (c *Client) Get(ctx context.Context, id string) (*database.Note, error) {
	opts := requestOptions{ExpectedContentType: &contentTypeApplicationJSON}

	res, err := c.doReq(ctx, http.MethodGet, notePath(id), nil, &opts)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &TransportError{Op: "get", Err: err}
	}
	defer res.Body.Close()

	var ret database.Note
	if err := decodeBody(res, &ret); err != nil {
		return nil, &TransportError{Op: "get", Err: err}
	}

	return &ret, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, n database.Note) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "marshalling payload")
	}

	res, err := c.doReq(ctx, method, path, payload, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	res.Body.Close()

	return nil
}

// Create sends the full note payload to the remote as a new note
func (c *Client) Create(ctx context.Context, n database.Note) error {
	return c.send(ctx, "create", http.MethodPost, "/notes", n)
}

// Update replaces the remote note with the given id with the full note payload
func (c *Client) Update(ctx context.Context, id string, n database.Note) error {
	return c.send(ctx, "update", http.MethodPut, notePath(id), n)
}

// Delete removes the note from the remote. A note the remote does not have
// counts as deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	res, err := c.doReq(ctx, http.MethodDelete, notePath(id), nil, nil)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return &TransportError{Op: "delete", Err: err}
	}
	res.Body.Close()

	return nil
}

// ListResp is the response of the list endpoint
type ListResp struct {
	Notes  []database.Note `json:"notes"`
	MaxUSN int64           `json:"maxUsn"`
}

// List fetches the remote notes written after the given update sequence
// number, in the order the remote received them. Zero fetches every note.
func (c *Client) List(ctx context.Context, afterUSN int64) (ListResp, error) {
	path := "/notes"
	if afterUSN != 0 {
		q := url.Values{}
		q.Set("afterUsn", strconv.FormatInt(afterUSN, 10))
		path = fmt.Sprintf("%s?%s", path, q.Encode())
	}

	opts := requestOptions{ExpectedContentType: &contentTypeApplicationJSON}
	res, err := c.doReq(ctx, http.MethodGet, path, nil, &opts)
	if err != nil {
		return ListResp{}, &TransportError{Op: "list", Err: err}
	}
	defer res.Body.Close()

	var ret ListResp
	if err := decodeBody(res, &ret); err != nil {
		return ListResp{}, &TransportError{Op: "list", Err: err}
	}

	return ret, nil
}

// Health checks that the remote is reachable and serving
func (c *Client) Health(ctx context.Context) error {
	res, err := c.doReq(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return &TransportError{Op: "health", Err: err}
	}
	res.Body.Close()

	return nil
}
