package domain

import "context"

// Repository is the persistence collaborator. SelectOne returns a
// *NotFoundError for missing rows, SelectMany orders by ascending id and
// Delete of a missing row is not an error.
type Repository interface {
	Insert(ctx context.Context, value Record) (Record, error)
	SelectOne(ctx context.Context, kind Kind, id uint) (Record, error)
	SelectMany(ctx context.Context, kind Kind, filter Filter) ([]Record, error)
	Update(ctx context.Context, value Record) (Record, error)
	Delete(ctx context.Context, kind Kind, id uint) error
}

// UnitOfWork runs fn against a repository whose writes become visible
// together or not at all.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type Store interface {
	Repository
	UnitOfWork
}
