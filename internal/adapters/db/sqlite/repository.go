package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// GoalRepository stores each kind in its own table. It satisfies
// domain.Store; WithinTx hands fn a repository bound to a gorm transaction.
type GoalRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection keeps the pragmas below in effect for every statement.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Close releases the underlying connection pool.
func (r *GoalRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GoalRepository) table(ctx context.Context, kind domain.Kind) (*gorm.DB, error) {
	if !kind.Valid() {
		return nil, domain.BadRequest("unknown kind %q", kind)
	}
	return r.db.WithContext(ctx).Table(kind.Spec().Table), nil
}

func (r *GoalRepository) Insert(ctx context.Context, value domain.Record) (domain.Record, error) {
	q, err := r.table(ctx, value.Kind)
	if err != nil {
		return domain.Record{}, err
	}

	if parentKind, parentID, ok := value.ParentRef(); ok {
		exists, err := r.exists(ctx, parentKind, parentID)
		if err != nil {
			return domain.Record{}, err
		}
		if !exists {
			return domain.Record{}, fmt.Errorf("%w: %s %d", domain.ErrParentNotFound, parentKind, parentID)
		}
	} else if !value.Kind.Spec().IsRoot() {
		return domain.Record{}, fmt.Errorf("%w: %s requires %s", domain.ErrParentNotFound, value.Kind, value.Kind.Spec().ParentField)
	}

	m := toModel(value)
	m.ID = 0
	if value.Kind.Spec().IsRoot() {
		q = q.Omit("parent_id")
	}
	if err := q.Create(&m).Error; err != nil {
		return domain.Record{}, domain.Internal("insert "+string(value.Kind), err)
	}
	return m.toDomain(value.Kind), nil
}

func (r *GoalRepository) exists(ctx context.Context, kind domain.Kind, id uint) (bool, error) {
	q, err := r.table(ctx, kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := q.Where("id = ?", id).Count(&count).Error; err != nil {
		return false, domain.Internal("count "+string(kind), err)
	}
	return count > 0, nil
}

func (r *GoalRepository) SelectOne(ctx context.Context, kind domain.Kind, id uint) (domain.Record, error) {
	q, err := r.table(ctx, kind)
	if err != nil {
		return domain.Record{}, err
	}
	var m RecordModel
	if err := q.Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Record{}, domain.NotFound(kind, id)
		}
		return domain.Record{}, domain.Internal("select "+string(kind), err)
	}
	return m.toDomain(kind), nil
}

func (r *GoalRepository) SelectMany(ctx context.Context, kind domain.Kind, filter domain.Filter) ([]domain.Record, error) {
	q, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}
	if filter.ParentID != nil {
		if kind.Spec().IsRoot() {
			return []domain.Record{}, nil
		}
		q = q.Where("parent_id = ?", *filter.ParentID)
	}

	rows := make([]RecordModel, 0)
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, domain.Internal("list "+string(kind), err)
	}

	result := make([]domain.Record, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain(kind))
	}
	return result, nil
}

func (r *GoalRepository) Update(ctx context.Context, value domain.Record) (domain.Record, error) {
	q, err := r.table(ctx, value.Kind)
	if err != nil {
		return domain.Record{}, err
	}

	updates := map[string]any{
		"title":      value.Title,
		"updated_at": value.UpdatedAt,
	}
	if value.Kind.Spec().HasStatus() {
		updates["status"] = string(value.Status)
	}

	res := q.Where("id = ?", value.ID).Updates(updates)
	if res.Error != nil {
		return domain.Record{}, domain.Internal("update "+string(value.Kind), res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Record{}, domain.NotFound(value.Kind, value.ID)
	}
	return r.SelectOne(ctx, value.Kind, value.ID)
}

func (r *GoalRepository) Delete(ctx context.Context, kind domain.Kind, id uint) error {
	q, err := r.table(ctx, kind)
	if err != nil {
		return err
	}
	if err := q.Where("id = ?", id).Delete(&RecordModel{}).Error; err != nil {
		return domain.Internal("delete "+string(kind), err)
	}
	return nil
}

func (r *GoalRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GoalRepository{db: tx})
	})
}
