package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

// Server speaks newline-delimited JSON-RPC 2.0 on a unix socket. It is the
// transport behind the CLI.
type Server struct {
	service  *application.GoalService
	logger   *slog.Logger
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type recordRef struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

type createParams struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	ParentID uint   `json:"parent_id"`
	Status   string `json:"status"`
}

type listParams struct {
	Kind     string `json:"kind"`
	ParentID *uint  `json:"parent_id"`
}

type updateParams struct {
	Kind   string  `json:"kind"`
	ID     uint    `json:"id"`
	Title  *string `json:"title"`
	Status *string `json:"status"`
}

func Start(path string, service *application.GoalService, logger *slog.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, logger: logger, listener: ln, path: path}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Path() string { return s.path }

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "records.create":
		var p createParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		kind, err := domain.ParseKind(p.Kind)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		in := application.CreateInput{Title: p.Title, ParentID: p.ParentID}
		if strings.TrimSpace(p.Status) != "" {
			status, err := domain.ParseStatus(p.Status)
			if err != nil {
				return s.appError(ctx, req.ID, err)
			}
			in.Status = &status
		}
		rec, err := s.service.Create(ctx, kind, in)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: rec, ID: req.ID}

	case "records.get":
		var p recordRef
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		kind, err := domain.ParseKind(p.Kind)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		rec, err := s.service.Get(ctx, kind, p.ID)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: rec, ID: req.ID}

	case "records.list":
		var p listParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		kind, err := domain.ParseKind(p.Kind)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		items, err := s.service.List(ctx, kind, domain.Filter{ParentID: p.ParentID})
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: items, ID: req.ID}

	case "records.update":
		var p updateParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		kind, err := domain.ParseKind(p.Kind)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		patch := domain.Patch{Title: p.Title}
		if p.Status != nil {
			status, err := domain.ParseStatus(*p.Status)
			if err != nil {
				return s.appError(ctx, req.ID, err)
			}
			patch.Status = &status
		}
		rec, err := s.service.Update(ctx, kind, p.ID, patch)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: rec, ID: req.ID}

	case "records.delete":
		var p recordRef
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		kind, err := domain.ParseKind(p.Kind)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		if err := s.service.Delete(ctx, kind, p.ID); err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"deleted": true, "kind": kind, "id": p.ID}, ID: req.ID}

	case "records.tree":
		forest, err := s.service.Tree(ctx)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: forest, ID: req.ID}

	case "records.seed":
		theme, err := s.service.SeedExample(ctx)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: theme, ID: req.ID}

	case "records.recompute":
		changed, err := s.service.Recompute(ctx)
		if err != nil {
			return s.appError(ctx, req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]int{"changed": changed}, ID: req.ID}
	}

	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

// appError maps the error taxonomy onto application codes: the HTTP status
// times one hundred. Client errors keep their detail; internals do not.
func (s *Server) appError(ctx context.Context, id any, err error) response {
	status := domain.HTTPStatus(err)
	if status >= 500 {
		s.logger.ErrorContext(ctx, "rpc call failed", "error", err)
		return response{JSONRPC: "2.0", Error: &rpcError{Code: status * 100, Message: domain.PublicMessage(err)}, ID: id}
	}
	message := domain.PublicMessage(err)
	if detail := err.Error(); detail != message {
		message = fmt.Sprintf("%s: %s", message, detail)
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: status * 100, Message: message}, ID: id}
}
