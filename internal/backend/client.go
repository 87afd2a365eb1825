/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

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

	"pysketch/internal/domain"
)

// Client talks to the archive API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// WithTimeout sets the per-request timeout and returns c.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.client.Timeout = d
	}
	return c
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (c *Client) do(ctx context.Context, method, path, ctype string, body []byte) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Method: method, Path: u.Path, Status: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &msg) == nil {
			apiErr.Message = msg.Error
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	var payload []byte
	ctype := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload, ctype = b, "application/json"
	}
	resp, err := c.do(ctx, method, path, ctype, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dest)
}

// TokenResponse is the answer of POST /api/auth/token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// IssueToken exchanges the server secret for a bearer token. ttl <= 0 uses
// the server default. The returned token is also set on c.
func (c *Client) IssueToken(ctx context.Context, secret, subject string, ttl time.Duration) (TokenResponse, error) {
	req := map[string]any{"secret": secret, "subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	var tr TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &tr); err != nil {
		return TokenResponse{}, err
	}
	c.Token = tr.Token
	return tr, nil
}

// ListProjects returns the archived projects, most recently updated first.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	var list []ProjectInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Push uploads p and returns the archived version.
func (c *Client) Push(ctx context.Context, p domain.Project) (ProjectInfo, error) {
	if p.Layers == nil {
		p.Layers = []domain.Layer{}
	}
	if p.Strokes == nil {
		p.Strokes = []domain.Stroke{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ProjectInfo{}, err
	}
	resp, err := c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(p.ID), "application/json", b)
	if err != nil {
		return ProjectInfo{}, err
	}
	defer resp.Body.Close()
	var info ProjectInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ProjectInfo{}, err
	}
	return info, nil
}

// Pull downloads the archived project with the given id.
func (c *Client) Pull(ctx context.Context, id string) (domain.Project, error) {
	var p domain.Project
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, &p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// Program asks the server to compile the archived project. A negative
// tolerance leaves the server default in place.
func (c *Client) Program(ctx context.Context, id string, tolerance float64) (string, error) {
	path := "/api/projects/" + url.PathEscape(id) + "/program"
	if tolerance >= 0 {
		path += "?tolerance=" + strconv.FormatFloat(tolerance, 'g', -1, 64)
	}
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
