package service

import (
	"context"
	"errors"

	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
)

// entity 汇总各内容类型共用的列表、读取、保存与删除流程，
// 各类型只提供校验与字段赋值。
type entity[T any, I any] struct {
	table    *store.Table[T]
	order    []store.Option
	notFound error
	validate func(I) (I, error)
	apply    func(*T, I)
	onChange func(context.Context)
}

func newEntity[T any, I any](gdb *gorm.DB, name string, notFound error) *entity[T, I] {
	return &entity[T, I]{
		table:    store.NewTable[T](gdb, name),
		notFound: notFound,
	}
}

func (e *entity[T, I]) list(ctx context.Context, extra ...store.Option) ([]T, error) {
	opts := append(append([]store.Option{}, extra...), e.order...)
	return e.table.Select(ctx, opts...)
}

func (e *entity[T, I]) get(ctx context.Context, id uint) (T, error) {
	row, err := e.table.Get(ctx, id)
	if err != nil {
		return row, e.mapNotFound(err)
	}
	return row, nil
}

// save 在 id 为 0 时新增，否则更新已有记录。
func (e *entity[T, I]) save(ctx context.Context, id uint, input I) (T, error) {
	var zero T
	normalized, err := e.validate(input)
	if err != nil {
		return zero, err
	}

	if id == 0 {
		var row T
		e.apply(&row, normalized)
		if err := e.table.Insert(ctx, &row); err != nil {
			return zero, err
		}
		e.changed(ctx)
		return row, nil
	}

	row, err := e.table.Update(ctx, id, func(existing *T) error {
		e.apply(existing, normalized)
		return nil
	})
	if err != nil {
		return zero, e.mapNotFound(err)
	}
	e.changed(ctx)
	return row, nil
}

func (e *entity[T, I]) delete(ctx context.Context, id uint) error {
	if err := e.table.Delete(ctx, id); err != nil {
		return e.mapNotFound(err)
	}
	e.changed(ctx)
	return nil
}

func (e *entity[T, I]) changed(ctx context.Context) {
	if e.onChange != nil {
		e.onChange(ctx)
	}
}

// mapNotFound 把未找到错误替换为实体自己的哨兵错误，保留类别以便 handler 选择状态码。
func (e *entity[T, I]) mapNotFound(err error) error {
	var storeErr *store.Error
	if e.notFound != nil && errors.As(err, &storeErr) && storeErr.Kind == store.KindNotFound {
		return &store.Error{Kind: store.KindNotFound, Op: storeErr.Op, Table: storeErr.Table, Err: e.notFound}
	}
	return err
}
