package sqlite

import (
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

// RecordModel maps every goal table. Each kind has its own table with the
// same columns; themes carry no parent_id and measurement/keyresult rows keep
// status NULL.
type RecordModel struct {
	ID        uint `gorm:"primaryKey"`
	ParentID  *uint
	Title     string `gorm:"not null"`
	Status    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toModel(value domain.Record) RecordModel {
	m := RecordModel{
		ID:        value.ID,
		Title:     value.Title,
		CreatedAt: value.CreatedAt,
		UpdatedAt: value.UpdatedAt,
	}
	if !value.Kind.Spec().IsRoot() {
		parentID := value.ParentID
		m.ParentID = &parentID
	}
	if value.Kind.Spec().HasStatus() {
		status := string(value.Status)
		m.Status = &status
	}
	return m
}

func (m RecordModel) toDomain(kind domain.Kind) domain.Record {
	out := domain.Record{
		Kind:      kind,
		ID:        m.ID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ParentID != nil {
		out.ParentID = *m.ParentID
	}
	if m.Status != nil && kind.Spec().HasStatus() {
		out.Status = domain.Status(*m.Status)
	}
	return out
}
