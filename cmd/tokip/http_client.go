package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

// httpRecords uses the server's JSON /api routes. Seeding and recomputing
// are only offered on the socket.
type httpRecords struct {
	client *http.Client
	base   string
}

func newHTTPRecords(server string) *httpRecords {
	return &httpRecords{
		client: &http.Client{Timeout: 20 * time.Second},
		base:   strings.TrimRight(server, "/"),
	}
}

func collectionPath(kind domain.Kind) string {
	return "/api/" + kind.Spec().Plural
}

func recordPath(kind domain.Kind, id uint) string {
	return collectionPath(kind) + "/" + uintToString(id)
}

func (c *httpRecords) send(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return readFailure(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readFailure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &domain.RemoteError{Status: resp.StatusCode, Message: message}
}

func (c *httpRecords) Create(ctx context.Context, kind domain.Kind, in createRequest) (domain.Record, error) {
	var rec domain.Record
	err := c.send(ctx, http.MethodPost, collectionPath(kind), in, &rec)
	return rec, err
}

func (c *httpRecords) List(ctx context.Context, kind domain.Kind, parentID *uint) ([]domain.Record, error) {
	path := collectionPath(kind)
	if parentID != nil {
		path += "?" + url.Values{"parent_id": {uintToString(*parentID)}}.Encode()
	}
	var recs []domain.Record
	err := c.send(ctx, http.MethodGet, path, nil, &recs)
	return recs, err
}

func (c *httpRecords) Get(ctx context.Context, kind domain.Kind, id uint) (domain.Record, error) {
	var rec domain.Record
	err := c.send(ctx, http.MethodGet, recordPath(kind, id), nil, &rec)
	return rec, err
}

func (c *httpRecords) Update(ctx context.Context, kind domain.Kind, id uint, patch patchRequest) (domain.Record, error) {
	var rec domain.Record
	err := c.send(ctx, http.MethodPut, recordPath(kind, id), patch, &rec)
	return rec, err
}

func (c *httpRecords) Delete(ctx context.Context, kind domain.Kind, id uint) error {
	return c.send(ctx, http.MethodDelete, recordPath(kind, id), nil, nil)
}

func (c *httpRecords) Tree(ctx context.Context) ([]application.TreeNode, error) {
	var forest []application.TreeNode
	err := c.send(ctx, http.MethodGet, "/api/tree", nil, &forest)
	return forest, err
}

func (c *httpRecords) Seed(context.Context) (domain.Record, error) {
	return domain.Record{}, errNeedsSocket
}

func (c *httpRecords) Recompute(context.Context) (int, error) {
	return 0, errNeedsSocket
}
