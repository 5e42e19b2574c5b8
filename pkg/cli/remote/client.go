/* Copyright 2025 Flockbook Authors
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

// Package remote is a client for the hosted relational backend's REST
// surface, where every collection is stored in an operator-configured table.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100

	restPath = "/rest/v1"

	// DefaultPageSize is the number of rows requested per page when listing
	DefaultPageSize = 1000
)

// Row is a single remote record
type Row map[string]interface{}

// ID returns the identifier of the row
func (r Row) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Config is the remote endpoint and credential
type Config struct {
	URL    string
	APIKey string
}

// Client performs requests against the remote store
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	PageSize   int
}

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

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

// NewClient validates the configuration and returns a client. A nil
// httpClient uses a rate limited default.
func NewClient(c Config, httpClient *http.Client) (*Client, error) {
	rawURL := strings.TrimSpace(c.URL)
	if rawURL == "" {
		return nil, &ConfigError{Setting: "remote.url"}
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConfigError{Setting: "remote.url", Reason: "must be an http or https URL"}
	}

	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return nil, &ConfigError{Setting: "remote.apiKey"}
	}

	endpoint := strings.TrimRight(rawURL, "/")
	if !strings.HasSuffix(endpoint, restPath) {
		endpoint += restPath
	}

	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient()
	}

	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		PageSize:   DefaultPageSize,
	}, nil
}

// Endpoint returns the REST endpoint requests are made against
func (c *Client) Endpoint() string {
	return c.endpoint
}

type requestOptions struct {
	prefer string
	body   interface{}
}

func (c *Client) newRequest(ctx context.Context, method string, target TableTarget, query string, opts requestOptions) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/%s", c.endpoint, target.Path)
	if query != "" {
		endpoint = endpoint + "?" + query
	}

	var body io.Reader
	if opts.body != nil {
		b, err := json.Marshal(opts.body)
		if err != nil {
			return nil, errors.Wrap(err, "marshalling payload")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.prefer != "" {
		req.Header.Set("Prefer", opts.prefer)
	}
	if target.Schema != nil {
		req.Header.Set("Accept-Profile", *target.Schema)
		req.Header.Set("Content-Profile", *target.Schema)
	}

	return req, nil
}

// do sends the request and returns the response body. Any failure is
// returned as an *Error.
func (c *Client) do(req *http.Request, target TableTarget) ([]byte, error) {
	log.Debug("HTTP %s %s\n", req.Method, req.URL.String())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{
			Message: EnrichMessage(fmt.Sprintf("request to %s failed: %s", target.DisplayName, err.Error()), target),
			Err:     err,
		}
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{
			StatusCode: res.StatusCode,
			Message:    "reading the response body failed",
			Err:        err,
		}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, parseError(res.StatusCode, body, target)
	}

	return body, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, ok := m[key].(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(s)
}

// parseError classifies a non-2xx response. The message is read from the
// JSON error body's message, details or hint, in that order, and falls back
// to the raw text.
func parseError(statusCode int, body []byte, target TableTarget) *Error {
	ret := &Error{StatusCode: statusCode}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		ret.Code = stringField(payload, "code")

		for _, key := range []string{"message", "details", "hint"} {
			if s := stringField(payload, key); s != "" {
				ret.Message = s
				break
			}
		}
	}

	if ret.Message == "" {
		ret.Message = strings.TrimSpace(string(body))
	}
	if ret.Message == "" {
		ret.Message = http.StatusText(statusCode)
	}

	ret.Message = EnrichMessage(ret.Message, target)

	return ret
}

// List returns one page of rows ordered by id
func (c *Client) List(ctx context.Context, target TableTarget, limit, offset int) ([]Row, error) {
	query := fmt.Sprintf("select=*&order=id.asc&limit=%d&offset=%d", limit, offset)

	req, err := c.newRequest(ctx, http.MethodGet, target, query, requestOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "building list request")
	}

	body, err := c.do(req, target)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &Error{Message: fmt.Sprintf("unexpected list response from %s", target.DisplayName), Err: err}
	}

	return rows, nil
}

// ListAll pages through the whole table until a page comes back empty
func (c *Client) ListAll(ctx context.Context, target TableTarget) ([]Row, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	ret := []Row{}
	for offset := 0; ; {
		rows, err := c.List(ctx, target, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		ret = append(ret, rows...)
		offset += len(rows)
	}

	return ret, nil
}

// Upsert inserts the row or merges it into the row with the same id, and
// returns the stored representation.
func (c *Client) Upsert(ctx context.Context, target TableTarget, row Row) (Row, error) {
	opts := requestOptions{
		prefer: "resolution=merge-duplicates,return=representation",
		body:   row,
	}
	req, err := c.newRequest(ctx, http.MethodPost, target, "on_conflict=id", opts)
	if err != nil {
		return nil, errors.Wrap(err, "building upsert request")
	}

	body, err := c.do(req, target)
	if err != nil {
		return nil, err
	}

	stored, err := decodeRepresentation(body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("unexpected upsert response from %s", target.DisplayName), Err: err}
	}

	return stored, nil
}

func decodeRepresentation(body []byte) (Row, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var row Row
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, errors.Wrap(err, "decoding row")
		}
		return row, nil
	}

	var rows []Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding rows")
	}
	if len(rows) == 0 {
		return nil, errors.New("empty representation")
	}

	return rows[0], nil
}

// Delete removes the row with the given id. Deleting a row that does not
// exist succeeds.
func (c *Client) Delete(ctx context.Context, target TableTarget, id string) error {
	query := "id=eq." + url.QueryEscape(id)

	req, err := c.newRequest(ctx, http.MethodDelete, target, query, requestOptions{prefer: "return=minimal"})
	if err != nil {
		return errors.Wrap(err, "building delete request")
	}

	if _, err := c.do(req, target); err != nil {
		return err
	}

	return nil
}

// Ping checks that the endpoint is reachable
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/", nil)
	if err != nil {
		return errors.Wrap(err, "constructing http request")
	}
	req.Header.Set("apikey", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "making http request")
	}
	res.Body.Close()

	return nil
}
