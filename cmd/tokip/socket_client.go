package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

// socketRecords speaks the records.* JSON-RPC methods over the server's
// unix socket, one connection per call.
type socketRecords struct {
	path string
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcFailure     `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type rpcFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// err turns a failure into the local taxonomy. Application failures carry
// the HTTP status times one hundred; the rest are protocol errors.
func (f *rpcFailure) err(method string) error {
	if f.Code >= 10000 {
		return &domain.RemoteError{Status: f.Code / 100, Message: f.Message}
	}
	return fmt.Errorf("%s: json-rpc error %d: %s", method, f.Code, f.Message)
}

func (c socketRecords) invoke(ctx context.Context, method string, params any, out any) error {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", c.path)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.path, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(rpcEnvelope{JSONRPC: "2.0", Method: method, Params: params, ID: 1}); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	var reply rpcEnvelope
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if reply.Error != nil {
		return reply.Error.err(method)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(reply.Result, out)
}

func (c socketRecords) Create(ctx context.Context, kind domain.Kind, in createRequest) (domain.Record, error) {
	var rec domain.Record
	params := struct {
		Kind string `json:"kind"`
		createRequest
	}{Kind: string(kind), createRequest: in}
	err := c.invoke(ctx, "records.create", params, &rec)
	return rec, err
}

func (c socketRecords) List(ctx context.Context, kind domain.Kind, parentID *uint) ([]domain.Record, error) {
	var recs []domain.Record
	err := c.invoke(ctx, "records.list", map[string]any{"kind": string(kind), "parent_id": parentID}, &recs)
	return recs, err
}

func (c socketRecords) Get(ctx context.Context, kind domain.Kind, id uint) (domain.Record, error) {
	var rec domain.Record
	err := c.invoke(ctx, "records.get", map[string]any{"kind": string(kind), "id": id}, &rec)
	return rec, err
}

func (c socketRecords) Update(ctx context.Context, kind domain.Kind, id uint, patch patchRequest) (domain.Record, error) {
	var rec domain.Record
	params := struct {
		Kind string `json:"kind"`
		ID   uint   `json:"id"`
		patchRequest
	}{Kind: string(kind), ID: id, patchRequest: patch}
	err := c.invoke(ctx, "records.update", params, &rec)
	return rec, err
}

func (c socketRecords) Delete(ctx context.Context, kind domain.Kind, id uint) error {
	return c.invoke(ctx, "records.delete", map[string]any{"kind": string(kind), "id": id}, nil)
}

func (c socketRecords) Tree(ctx context.Context) ([]application.TreeNode, error) {
	var forest []application.TreeNode
	err := c.invoke(ctx, "records.tree", nil, &forest)
	return forest, err
}

func (c socketRecords) Seed(ctx context.Context) (domain.Record, error) {
	var theme domain.Record
	err := c.invoke(ctx, "records.seed", nil, &theme)
	return theme, err
}

func (c socketRecords) Recompute(ctx context.Context) (int, error) {
	var out struct {
		Changed int `json:"changed"`
	}
	err := c.invoke(ctx, "records.recompute", nil, &out)
	return out.Changed, err
}
