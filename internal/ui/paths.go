package ui

import (
	"fmt"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

func RecordURL(kind domain.Kind, id uint) string {
	return fmt.Sprintf("/%s/%d", kind, id)
}

func ChildrenURL(parentKind domain.Kind, parentID uint, childKind domain.Kind) string {
	return fmt.Sprintf("/%s/%d/%s", parentKind, parentID, childKind.Spec().Plural)
}

// ListingURL is the listing a record is shown in: its parent's child table,
// or the kind's full table for roots.
func ListingURL(rec domain.Record) string {
	if parentKind, parentID, ok := rec.ParentRef(); ok {
		return ChildrenURL(parentKind, parentID, rec.Kind)
	}
	return "/" + string(rec.Kind)
}

func RowID(kind domain.Kind, id uint) string {
	return fmt.Sprintf("%s-%d", kind, id)
}

func TableID(t application.TablePayload) string {
	if t.Scoped() {
		return fmt.Sprintf("%s-%d-%s", t.ParentKind, t.ParentID, t.Kind.Spec().Plural)
	}
	return t.Kind.Spec().Plural + "-table"
}
