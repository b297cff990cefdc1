package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

type FragmentKind string

const (
	FragmentPage  FragmentKind = "page"
	FragmentTable FragmentKind = "table"
	FragmentRow   FragmentKind = "row"
	FragmentForm  FragmentKind = "form"
)

func (f FragmentKind) Valid() bool {
	switch f {
	case FragmentPage, FragmentTable, FragmentRow, FragmentForm:
		return true
	}
	return false
}

// FragmentRequest names what to resolve. For table fragments Kind is the
// kind of the listed rows and ParentID, when set, narrows them to the
// children of one parent. The other fragments need ID.
type FragmentRequest struct {
	Kind     domain.Kind
	ID       uint
	Fragment FragmentKind
	ParentID *uint
}

// Fragment is the payload handed to the renderer. Exactly one of Page,
// Table, Row and Form is set, matching Fragment.
type Fragment struct {
	Template string
	Kind     domain.Kind
	Fragment FragmentKind
	Page     *PagePayload
	Table    *TablePayload
	Row      *domain.Record
	Form     *FormPayload
}

type PagePayload struct {
	Record      domain.Record
	Parent      *domain.Ref
	Collections []TablePayload
}

type TablePayload struct {
	Kind       domain.Kind
	ParentKind domain.Kind
	ParentID   uint
	Items      []domain.Record
}

// Scoped reports whether the table lists the children of one parent.
func (t TablePayload) Scoped() bool { return t.ParentID != 0 }

type FormPayload struct {
	Record        domain.Record
	StatusOptions []domain.Status
}

func TemplateName(kind domain.Kind, fragment FragmentKind) string {
	return fmt.Sprintf("%s/%s", kind, fragment)
}

func (s *GoalService) Resolve(ctx context.Context, req FragmentRequest) (out Fragment, err error) {
	startedAt := time.Now()
	fields := map[string]any{"kind": string(req.Kind), "fragment": string(req.Fragment)}
	if req.ID != 0 {
		fields["id"] = req.ID
	}
	defer func() {
		// Reads are noisy; only failures are worth reporting.
		if err != nil {
			s.observe(ctx, "resolve", startedAt, fields, err)
		}
	}()

	if !req.Kind.Valid() {
		return Fragment{}, domain.BadRequest("unknown kind %q", req.Kind)
	}
	if !req.Fragment.Valid() {
		return Fragment{}, domain.BadRequest("unknown fragment %q", req.Fragment)
	}

	out = Fragment{
		Template: TemplateName(req.Kind, req.Fragment),
		Kind:     req.Kind,
		Fragment: req.Fragment,
	}

	switch req.Fragment {
	case FragmentTable:
		table, err := s.resolveTable(ctx, req.Kind, req.ParentID)
		if err != nil {
			return Fragment{}, err
		}
		out.Table = &table
		return out, nil
	}

	rec, err := s.store.SelectOne(ctx, req.Kind, req.ID)
	if err != nil {
		return Fragment{}, err
	}

	switch req.Fragment {
	case FragmentRow:
		out.Row = &rec
	case FragmentForm:
		form := FormPayload{Record: rec}
		if req.Kind.Spec().Status == domain.StatusSettable {
			form.StatusOptions = slices.Clone(domain.Statuses)
		}
		out.Form = &form
	case FragmentPage:
		page := s.resolvePage(ctx, rec)
		out.Page = &page
	}
	return out, nil
}

// resolveTable lists the rows of kind, optionally narrowed to one parent.
// An absent parent simply has no children.
func (s *GoalService) resolveTable(ctx context.Context, kind domain.Kind, parentID *uint) (TablePayload, error) {
	table := TablePayload{Kind: kind, Items: []domain.Record{}}
	filter := domain.Filter{}
	if parentID != nil {
		spec := kind.Spec()
		if spec.IsRoot() {
			return TablePayload{}, domain.BadRequest("%s has no parent", spec.Label)
		}
		table.ParentKind = spec.Parent
		table.ParentID = *parentID
		filter = domain.ByParent(*parentID)
	}

	items, err := s.store.SelectMany(ctx, kind, filter)
	if err != nil {
		s.degraded(ctx, kind, err)
		return table, nil
	}
	table.Items = items
	return table, nil
}

// resolvePage joins the record with its direct parent for the breadcrumb
// and with every child collection. Child lookups that fail render empty.
func (s *GoalService) resolvePage(ctx context.Context, rec domain.Record) PagePayload {
	page := PagePayload{Record: rec}

	if parentKind, parentID, ok := rec.ParentRef(); ok {
		parent, err := s.store.SelectOne(ctx, parentKind, parentID)
		if err == nil {
			ref := parent.Ref()
			page.Parent = &ref
		} else {
			s.degraded(ctx, parentKind, err)
		}
	}

	for _, childKind := range rec.Kind.Spec().Children {
		table := TablePayload{Kind: childKind, ParentKind: rec.Kind, ParentID: rec.ID, Items: []domain.Record{}}
		items, err := s.store.SelectMany(ctx, childKind, domain.ByParent(rec.ID))
		if err != nil {
			s.degraded(ctx, childKind, err)
		} else {
			table.Items = items
		}
		page.Collections = append(page.Collections, table)
	}
	return page
}

func (s *GoalService) degraded(ctx context.Context, kind domain.Kind, err error) {
	level := slog.LevelError
	if errors.Is(err, domain.ErrNotFound) {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "fragment lookup degraded", "kind", string(kind), "error", err)
}
