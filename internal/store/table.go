package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Option 调整一次查询的过滤、排序与数量限制。
type Option func(*gorm.DB) *gorm.DB

// Where 追加过滤条件。
func Where(query string, args ...interface{}) Option {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}

// OrderBy 按列排序；同一时间戳的记录再按 id 保持稳定顺序。
func OrderBy(column string, ascending bool) Option {
	direction := "desc"
	if ascending {
		direction = "asc"
	}
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(fmt.Sprintf("%s %s", column, direction)).Order("id " + direction)
	}
}

// Limit 限制返回条数，n <= 0 时不限制。
func Limit(n int) Option {
	return func(tx *gorm.DB) *gorm.DB {
		if n <= 0 {
			return tx
		}
		return tx.Limit(n)
	}
}

// Table 是针对单个模型的通用读写客户端。
type Table[T any] struct {
	db   *gorm.DB
	name string
}

// NewTable 基于 gorm 连接构造表客户端，name 仅用于错误信息。
func NewTable[T any](gdb *gorm.DB, name string) *Table[T] {
	return &Table[T]{db: gdb, name: name}
}

// Name 返回表名。
func (t *Table[T]) Name() string {
	return t.name
}

func (t *Table[T]) query(ctx context.Context, opts []Option) *gorm.DB {
	tx := t.db.WithContext(ctx).Model(new(T))
	for _, opt := range opts {
		if opt != nil {
			tx = opt(tx)
		}
	}
	return tx
}

// Select 返回满足条件的全部记录，结果为空时返回空切片而非 nil。
func (t *Table[T]) Select(ctx context.Context, opts ...Option) ([]T, error) {
	rows := make([]T, 0)
	if err := t.query(ctx, opts).Find(&rows).Error; err != nil {
		return nil, wrap("select", t.name, err)
	}
	return rows, nil
}

// First 返回满足条件的第一条记录。
func (t *Table[T]) First(ctx context.Context, opts ...Option) (T, error) {
	var row T
	if err := t.query(ctx, opts).Limit(1).Take(&row).Error; err != nil {
		var zero T
		return zero, wrap("select single", t.name, err)
	}
	return row, nil
}

// Get 按主键读取。
func (t *Table[T]) Get(ctx context.Context, id uint) (T, error) {
	var row T
	if err := t.db.WithContext(ctx).First(&row, id).Error; err != nil {
		var zero T
		return zero, wrap("get", t.name, err)
	}
	return row, nil
}

// Count 统计满足条件的记录数。
func (t *Table[T]) Count(ctx context.Context, opts ...Option) (int64, error) {
	var total int64
	if err := t.query(ctx, opts).Count(&total).Error; err != nil {
		return 0, wrap("count", t.name, err)
	}
	return total, nil
}

// Insert 新增记录，row 上的主键与时间戳会被回填。
func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	return wrap("insert", t.name, t.db.WithContext(ctx).Create(row).Error)
}

// Update 在事务内读取 id 对应记录，交给 mutate 修改后整体保存。
func (t *Table[T]) Update(ctx context.Context, id uint, mutate func(*T) error) (T, error) {
	var row T
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		if err := mutate(&row); err != nil {
			return err
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		var zero T
		return zero, wrap("update", t.name, err)
	}
	return row, nil
}

// Upsert 以 conflictColumns 为键插入或更新 updateColumns。
func (t *Table[T]) Upsert(ctx context.Context, row *T, conflictColumns, updateColumns []string) error {
	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, name := range conflictColumns {
		columns = append(columns, clause.Column{Name: name})
	}
	updates := append([]string{"updated_at"}, updateColumns...)
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(row).Error
	return wrap("upsert", t.name, err)
}

// Delete 按主键物理删除，记录不存在时返回 not_found。
func (t *Table[T]) Delete(ctx context.Context, id uint) error {
	result := t.db.WithContext(ctx).Unscoped().Delete(new(T), id)
	if result.Error != nil {
		return wrap("delete", t.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return &Error{Kind: KindNotFound, Op: "delete", Table: t.name, Err: ErrNotFound}
	}
	return nil
}
