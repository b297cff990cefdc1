// Package hierarchy holds goal records in flat per-kind tables and keeps the
// parent/child adjacency between them.
package hierarchy

import (
	"fmt"
	"slices"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

// Key identifies a node across kinds.
type Key struct {
	Kind domain.Kind
	ID   uint
}

// Index is not safe for concurrent use; callers serialize access.
type Index struct {
	tables   map[domain.Kind]map[uint]domain.Record
	children map[Key]map[domain.Kind][]uint
	parents  map[Key]Key
	lastID   map[domain.Kind]uint
}

func New() *Index {
	ix := &Index{
		tables:   make(map[domain.Kind]map[uint]domain.Record),
		children: make(map[Key]map[domain.Kind][]uint),
		parents:  make(map[Key]Key),
		lastID:   make(map[domain.Kind]uint),
	}
	for _, k := range domain.Kinds() {
		ix.tables[k] = make(map[uint]domain.Record)
	}
	return ix
}

// Insert assigns the next id of the record's kind and links it under its
// parent. The parent must already be present.
func (ix *Index) Insert(value domain.Record) (domain.Record, error) {
	if !value.Kind.Valid() {
		return domain.Record{}, fmt.Errorf("insert: unknown kind %q", value.Kind)
	}
	parentKind, parentID, hasParent := value.ParentRef()
	if hasParent {
		if _, ok := ix.tables[parentKind][parentID]; !ok {
			return domain.Record{}, fmt.Errorf("%w: %s %d", domain.ErrParentNotFound, parentKind, parentID)
		}
	}

	ix.lastID[value.Kind]++
	value.ID = ix.lastID[value.Kind]
	ix.tables[value.Kind][value.ID] = value

	if hasParent {
		child := Key{Kind: value.Kind, ID: value.ID}
		parent := Key{Kind: parentKind, ID: parentID}
		ix.parents[child] = parent
		byKind := ix.children[parent]
		if byKind == nil {
			byKind = make(map[domain.Kind][]uint)
			ix.children[parent] = byKind
		}
		byKind[value.Kind] = append(byKind[value.Kind], value.ID)
	}
	return value, nil
}

func (ix *Index) Get(kind domain.Kind, id uint) (domain.Record, bool) {
	rec, ok := ix.tables[kind][id]
	return rec, ok
}

// Replace overwrites the mutable fields of an existing record. Identity and
// parent link are kept from the stored copy.
func (ix *Index) Replace(value domain.Record) (domain.Record, bool) {
	stored, ok := ix.tables[value.Kind][value.ID]
	if !ok {
		return domain.Record{}, false
	}
	stored.Title = value.Title
	stored.Status = value.Status
	stored.UpdatedAt = value.UpdatedAt
	ix.tables[value.Kind][value.ID] = stored
	return stored, true
}

// Remove drops the record and its parent link. Children keep their own
// entries; callers decide what happens to them.
func (ix *Index) Remove(kind domain.Kind, id uint) bool {
	if _, ok := ix.tables[kind][id]; !ok {
		return false
	}
	delete(ix.tables[kind], id)

	key := Key{Kind: kind, ID: id}
	if parent, ok := ix.parents[key]; ok {
		delete(ix.parents, key)
		if byKind := ix.children[parent]; byKind != nil {
			byKind[kind] = slices.DeleteFunc(byKind[kind], func(v uint) bool { return v == id })
		}
	}
	delete(ix.children, key)
	return true
}

// Children lists the direct children of parent with the given kind in
// ascending id order.
func (ix *Index) Children(parent Key, kind domain.Kind) []domain.Record {
	ids := ix.children[parent][kind]
	out := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := ix.tables[kind][id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// All lists every record of kind in ascending id order.
func (ix *Index) All(kind domain.Kind) []domain.Record {
	table := ix.tables[kind]
	out := make([]domain.Record, 0, len(table))
	for _, rec := range table {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b domain.Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Clone returns a deep copy. Id counters are carried so ids handed out by
// the copy never collide with ones handed out before.
func (ix *Index) Clone() *Index {
	out := &Index{
		tables:   make(map[domain.Kind]map[uint]domain.Record, len(ix.tables)),
		children: make(map[Key]map[domain.Kind][]uint, len(ix.children)),
		parents:  make(map[Key]Key, len(ix.parents)),
		lastID:   make(map[domain.Kind]uint, len(ix.lastID)),
	}
	for kind, table := range ix.tables {
		cp := make(map[uint]domain.Record, len(table))
		for id, rec := range table {
			cp[id] = rec
		}
		out.tables[kind] = cp
	}
	for parent, byKind := range ix.children {
		cp := make(map[domain.Kind][]uint, len(byKind))
		for kind, ids := range byKind {
			cp[kind] = slices.Clone(ids)
		}
		out.children[parent] = cp
	}
	for child, parent := range ix.parents {
		out.parents[child] = parent
	}
	for kind, id := range ix.lastID {
		out.lastID[kind] = id
	}
	return out
}
