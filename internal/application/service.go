package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

// DeletePolicy decides what happens to descendants when a record is deleted.
type DeletePolicy string

const (
	DeleteCascade  DeletePolicy = "cascade"
	DeleteRestrict DeletePolicy = "restrict"
)

func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DeleteCascade:
		return DeleteCascade, nil
	case DeleteRestrict:
		return DeleteRestrict, nil
	}
	return "", fmt.Errorf("unknown delete policy %q", raw)
}

// GoalService is the public operation surface over the goal hierarchy.
// Every write runs as one unit of work, status rollup included.
type GoalService struct {
	store    domain.Store
	policy   DeletePolicy
	now      func() time.Time
	observer UseCaseObserver
	logger   *slog.Logger
}

type Option func(*GoalService)

func WithDeletePolicy(policy DeletePolicy) Option {
	return func(s *GoalService) { s.policy = policy }
}

func WithObserver(observer UseCaseObserver) Option {
	return func(s *GoalService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *GoalService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewGoalService(store domain.Store, opts ...Option) *GoalService {
	s := &GoalService{
		store:    store,
		policy:   DeleteCascade,
		now:      func() time.Time { return time.Now().UTC() },
		observer: NoopUseCaseObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GoalService) DeletePolicy() DeletePolicy { return s.policy }

// CreateInput carries the attributes of a new record. Status may only be
// given for kinds whose status is set by hand.
type CreateInput struct {
	Title    string
	ParentID uint
	Status   *domain.Status
}

func (s *GoalService) Create(ctx context.Context, kind domain.Kind, in CreateInput) (rec domain.Record, err error) {
	startedAt := time.Now()
	fields := map[string]any{"kind": string(kind), "parent_id": in.ParentID}
	defer func() {
		if err == nil {
			fields["id"] = rec.ID
		}
		s.observe(ctx, "create", startedAt, fields, err)
	}()

	if !kind.Valid() {
		return domain.Record{}, domain.BadRequest("unknown kind %q", kind)
	}
	spec := kind.Spec()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Record{}, domain.BadRequest("title is required")
	}
	if !spec.IsRoot() && in.ParentID == 0 {
		return domain.Record{}, domain.BadRequest("%s is required", spec.ParentField)
	}

	value := domain.Record{Kind: kind, Title: title}
	if !spec.IsRoot() {
		value.ParentID = in.ParentID
	}
	if spec.HasStatus() {
		value.Status = domain.StatusNotStarted
	}
	if in.Status != nil {
		if spec.Status != domain.StatusSettable {
			return domain.Record{}, domain.BadRequest("%s status cannot be set", spec.Label)
		}
		if !in.Status.Valid() {
			return domain.Record{}, domain.BadRequest("unknown status %q", *in.Status)
		}
		value.Status = *in.Status
	}

	now := s.now()
	value.CreatedAt = now
	value.UpdatedAt = now

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		parentKind, parentID, hasParent := value.ParentRef()
		if hasParent {
			if _, err := repo.SelectOne(ctx, parentKind, parentID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: %s %d", domain.ErrParentNotFound, parentKind, parentID)
				}
				return err
			}
		}

		created, err := repo.Insert(ctx, value)
		if err != nil {
			return err
		}
		rec = created

		if hasParent {
			return s.rollup(ctx, repo, parentKind, parentID)
		}
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

func (s *GoalService) Get(ctx context.Context, kind domain.Kind, id uint) (domain.Record, error) {
	if !kind.Valid() {
		return domain.Record{}, domain.BadRequest("unknown kind %q", kind)
	}
	return s.store.SelectOne(ctx, kind, id)
}

// List returns every record of kind, or only the children of filter.ParentID.
func (s *GoalService) List(ctx context.Context, kind domain.Kind, filter domain.Filter) ([]domain.Record, error) {
	if !kind.Valid() {
		return nil, domain.BadRequest("unknown kind %q", kind)
	}
	return s.store.SelectMany(ctx, kind, filter)
}

// ListChildren returns the children of kind childKind under the given parent
// in ascending id order. A parent without such children yields an empty slice.
func (s *GoalService) ListChildren(ctx context.Context, parentKind domain.Kind, parentID uint, childKind domain.Kind) ([]domain.Record, error) {
	if err := checkChildKind(parentKind, childKind); err != nil {
		return nil, err
	}
	if _, err := s.store.SelectOne(ctx, parentKind, parentID); err != nil {
		return nil, err
	}
	return s.store.SelectMany(ctx, childKind, domain.ByParent(parentID))
}

func checkChildKind(parentKind, childKind domain.Kind) error {
	if !parentKind.Valid() || !childKind.Valid() {
		return domain.BadRequest("unknown kind")
	}
	if childKind.Spec().Parent != parentKind {
		return domain.BadRequest("%s has no %s children", parentKind.Label(), childKind.Label())
	}
	return nil
}

func (s *GoalService) Update(ctx context.Context, kind domain.Kind, id uint, patch domain.Patch) (rec domain.Record, err error) {
	startedAt := time.Now()
	fields := map[string]any{"kind": string(kind), "id": id}
	defer func() { s.observe(ctx, "update", startedAt, fields, err) }()

	if !kind.Valid() {
		return domain.Record{}, domain.BadRequest("unknown kind %q", kind)
	}
	spec := kind.Spec()

	if patch.Title == nil && patch.Status == nil {
		return domain.Record{}, domain.BadRequest("nothing to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Record{}, domain.BadRequest("title must not be empty")
	}
	if patch.Status != nil {
		if spec.Status != domain.StatusSettable {
			return domain.Record{}, domain.BadRequest("%s status cannot be set", spec.Label)
		}
		if !patch.Status.Valid() {
			return domain.Record{}, domain.BadRequest("unknown status %q", *patch.Status)
		}
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		current, err := repo.SelectOne(ctx, kind, id)
		if err != nil {
			return err
		}

		statusChanged := false
		if patch.Title != nil {
			current.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Status != nil && *patch.Status != current.Status {
			current.Status = *patch.Status
			statusChanged = true
		}
		current.UpdatedAt = s.now()

		updated, err := repo.Update(ctx, current)
		if err != nil {
			return err
		}
		rec = updated

		if parentKind, parentID, ok := updated.ParentRef(); ok && statusChanged {
			fields["status"] = string(updated.Status)
			return s.rollup(ctx, repo, parentKind, parentID)
		}
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// Delete removes a record. Deleting an absent record succeeds. Descendants
// are removed or protect the record depending on the delete policy.
func (s *GoalService) Delete(ctx context.Context, kind domain.Kind, id uint) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"kind": string(kind), "id": id, "policy": string(s.policy)}
	defer func() { s.observe(ctx, "delete", startedAt, fields, err) }()

	if !kind.Valid() {
		return domain.BadRequest("unknown kind %q", kind)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		current, err := repo.SelectOne(ctx, kind, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fields["absent"] = true
				return nil
			}
			return err
		}

		if s.policy == DeleteRestrict {
			for _, childKind := range kind.Spec().Children {
				kids, err := repo.SelectMany(ctx, childKind, domain.ByParent(id))
				if err != nil {
					return err
				}
				if len(kids) > 0 {
					return fmt.Errorf("%w: %s %d has %d %s", domain.ErrHasChildren, kind, id, len(kids), childKind.Spec().Plural)
				}
			}
		}

		removed, err := deleteSubtree(ctx, repo, kind, id)
		if err != nil {
			return err
		}
		fields["removed"] = removed

		if parentKind, parentID, ok := current.ParentRef(); ok {
			return s.rollup(ctx, repo, parentKind, parentID)
		}
		return nil
	})
}

// deleteSubtree removes descendants before the record itself so no row is
// ever left pointing at a missing parent.
func deleteSubtree(ctx context.Context, repo domain.Repository, kind domain.Kind, id uint) (int, error) {
	removed := 0
	for _, childKind := range kind.Spec().Children {
		kids, err := repo.SelectMany(ctx, childKind, domain.ByParent(id))
		if err != nil {
			return removed, err
		}
		for _, kid := range kids {
			n, err := deleteSubtree(ctx, repo, childKind, kid.ID)
			removed += n
			if err != nil {
				return removed, err
			}
		}
	}
	if err := repo.Delete(ctx, kind, id); err != nil {
		return removed, err
	}
	return removed + 1, nil
}

// rollup recomputes derived statuses from (kind, id) up to the root and
// stops at the first ancestor whose status does not change.
func (s *GoalService) rollup(ctx context.Context, repo domain.Repository, kind domain.Kind, id uint) error {
	for {
		spec := kind.Spec()
		if spec.Status != domain.StatusDerived {
			return nil
		}

		current, err := repo.SelectOne(ctx, kind, id)
		if err != nil {
			return fmt.Errorf("rollup %s %d: %w", kind, id, err)
		}

		statuses, err := childStatuses(ctx, repo, spec, id)
		if err != nil {
			return err
		}
		next := Aggregate(statuses)
		if next == current.Status {
			return nil
		}

		current.Status = next
		current.UpdatedAt = s.now()
		if _, err := repo.Update(ctx, current); err != nil {
			return err
		}

		parentKind, parentID, ok := current.ParentRef()
		if !ok {
			return nil
		}
		kind, id = parentKind, parentID
	}
}

func childStatuses(ctx context.Context, repo domain.Repository, spec domain.KindSpec, id uint) ([]domain.Status, error) {
	var statuses []domain.Status
	for _, source := range spec.StatusSources() {
		kids, err := repo.SelectMany(ctx, source, domain.ByParent(id))
		if err != nil {
			return nil, err
		}
		for _, kid := range kids {
			statuses = append(statuses, kid.Status)
		}
	}
	return statuses, nil
}

// Recompute re-derives the status of every composite record, bottom-up.
// It repairs stores that were written without the gateway.
func (s *GoalService) Recompute(ctx context.Context) (changed int, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		fields["changed"] = changed
		s.observe(ctx, "recompute", startedAt, fields, err)
	}()

	var order []domain.Kind
	kinds := domain.Kinds()
	for i := len(kinds) - 1; i >= 0; i-- {
		if kinds[i].Spec().Status == domain.StatusDerived {
			order = append(order, kinds[i])
		}
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		changed = 0
		for _, kind := range order {
			recs, err := repo.SelectMany(ctx, kind, domain.Filter{})
			if err != nil {
				return err
			}
			for _, rec := range recs {
				statuses, err := childStatuses(ctx, repo, kind.Spec(), rec.ID)
				if err != nil {
					return err
				}
				next := Aggregate(statuses)
				if next == rec.Status {
					continue
				}
				rec.Status = next
				rec.UpdatedAt = s.now()
				if _, err := repo.Update(ctx, rec); err != nil {
					return err
				}
				changed++
			}
		}
		return nil
	})
	return changed, err
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrBadRequest) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrParentNotFound) ||
		errors.Is(err, domain.ErrHasChildren)
}
