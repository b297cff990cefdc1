package main

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

var errNeedsSocket = errors.New("this command needs the uds transport")

// records is the CLI's view of a running server. Failures come back as
// *domain.RemoteError so they classify like local ones.
type records interface {
	Create(ctx context.Context, kind domain.Kind, in createRequest) (domain.Record, error)
	List(ctx context.Context, kind domain.Kind, parentID *uint) ([]domain.Record, error)
	Get(ctx context.Context, kind domain.Kind, id uint) (domain.Record, error)
	Update(ctx context.Context, kind domain.Kind, id uint, patch patchRequest) (domain.Record, error)
	Delete(ctx context.Context, kind domain.Kind, id uint) error
	Tree(ctx context.Context) ([]application.TreeNode, error)
	Seed(ctx context.Context) (domain.Record, error)
	Recompute(ctx context.Context) (int, error)
}

type createRequest struct {
	Title    string `json:"title"`
	ParentID uint   `json:"parent_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

type patchRequest struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
}

func (p patchRequest) empty() bool { return p.Title == nil && p.Status == nil }

func newRecords(s settings) (records, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.Transport == transportHTTP {
		return newHTTPRecords(s.Server), nil
	}
	return socketRecords{path: s.Socket}, nil
}

// connectRecords reads the saved settings and returns a client for them.
func connectRecords() (records, error) {
	s, err := readSettings()
	if err != nil {
		return nil, err
	}
	return newRecords(s)
}

func parseID(raw string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || v == 0 {
		return 0, domain.BadRequest("invalid id %q", raw)
	}
	return uint(v), nil
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
