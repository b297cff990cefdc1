package domain

import "time"

// Record is the canonical row for every kind. ParentID is zero for themes.
// Status is empty for kinds without status.
type Record struct {
	Kind      Kind      `json:"kind"`
	ID        uint      `json:"id"`
	ParentID  uint      `json:"parent_id,omitempty"`
	Title     string    `json:"title"`
	Status    Status    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref is a denormalized pointer to another record, used for breadcrumbs.
type Ref struct {
	Kind  Kind   `json:"kind"`
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func (r Record) Ref() Ref {
	return Ref{Kind: r.Kind, ID: r.ID, Title: r.Title}
}

// ParentRef returns the kind and id of r's parent. ok is false for roots.
func (r Record) ParentRef() (Kind, uint, bool) {
	spec := r.Kind.Spec()
	if spec.IsRoot() || r.ParentID == 0 {
		return "", 0, false
	}
	return spec.Parent, r.ParentID, true
}

// Patch carries the fields a write endpoint may change. Nil means untouched.
type Patch struct {
	Title  *string
	Status *Status
}

// Filter narrows SelectMany. A nil ParentID selects every row of the kind.
type Filter struct {
	ParentID *uint
}

func ByParent(id uint) Filter {
	return Filter{ParentID: &id}
}
