// Package memory is an in-process Store over hierarchy.Index. Units of work
// run one at a time against a private copy which replaces the live index on
// success, so readers never see a half-applied write.
package memory

import (
	"context"
	"sync"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/atvirokodosprendimai/tokip/internal/hierarchy"
)

type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	index   *hierarchy.Index
}

func NewStore() *Store {
	return &Store{index: hierarchy.New()}
}

func (s *Store) snapshot() *hierarchy.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Store) Insert(ctx context.Context, value domain.Record) (domain.Record, error) {
	var out domain.Record
	err := s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		var err error
		out, err = repo.Insert(ctx, value)
		return err
	})
	return out, err
}

func (s *Store) SelectOne(ctx context.Context, kind domain.Kind, id uint) (domain.Record, error) {
	return view{index: s.snapshot()}.SelectOne(ctx, kind, id)
}

func (s *Store) SelectMany(ctx context.Context, kind domain.Kind, filter domain.Filter) ([]domain.Record, error) {
	return view{index: s.snapshot()}.SelectMany(ctx, kind, filter)
}

func (s *Store) Update(ctx context.Context, value domain.Record) (domain.Record, error) {
	var out domain.Record
	err := s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		var err error
		out, err = repo.Update(ctx, value)
		return err
	})
	return out, err
}

func (s *Store) Delete(ctx context.Context, kind domain.Kind, id uint) error {
	return s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		return repo.Delete(ctx, kind, id)
	})
}

// WithinTx serializes writers. fn works on a clone; the clone is published
// only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo domain.Repository) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.snapshot().Clone()
	if err := fn(ctx, view{index: working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.index = working
	s.mu.Unlock()
	return nil
}

// view adapts an index to domain.Repository. Published indexes are never
// mutated, so reads through a view need no lock.
type view struct {
	index *hierarchy.Index
}

func (v view) Insert(_ context.Context, value domain.Record) (domain.Record, error) {
	return v.index.Insert(value)
}

func (v view) SelectOne(_ context.Context, kind domain.Kind, id uint) (domain.Record, error) {
	rec, ok := v.index.Get(kind, id)
	if !ok {
		return domain.Record{}, domain.NotFound(kind, id)
	}
	return rec, nil
}

func (v view) SelectMany(_ context.Context, kind domain.Kind, filter domain.Filter) ([]domain.Record, error) {
	if filter.ParentID == nil {
		return v.index.All(kind), nil
	}
	parentKind := kind.Spec().Parent
	if parentKind == "" {
		return []domain.Record{}, nil
	}
	return v.index.Children(hierarchy.Key{Kind: parentKind, ID: *filter.ParentID}, kind), nil
}

func (v view) Update(_ context.Context, value domain.Record) (domain.Record, error) {
	rec, ok := v.index.Replace(value)
	if !ok {
		return domain.Record{}, domain.NotFound(value.Kind, value.ID)
	}
	return rec, nil
}

func (v view) Delete(_ context.Context, kind domain.Kind, id uint) error {
	v.index.Remove(kind, id)
	return nil
}
