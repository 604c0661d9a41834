package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind 区分数据访问失败的类别，调用方据此选择展示策略。
type ErrorKind string

const (
	KindNotFound ErrorKind = "not_found"
	KindInvalid  ErrorKind = "invalid"
	KindConflict ErrorKind = "conflict"
	KindBackend  ErrorKind = "backend"
)

// ErrNotFound 在按 id 或条件读取不到记录时返回。
var ErrNotFound = errors.New("record not found")

// Error 是所有数据访问调用返回的统一错误类型。
type Error struct {
	Kind  ErrorKind
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 返回 err 链上的错误类别；非 store 错误视为 backend，nil 返回空串。
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindBackend
}

// Invalid 构造一个校验失败的错误。
func Invalid(op, table string, err error) error {
	return &Error{Kind: KindInvalid, Op: op, Table: table, Err: err}
}

func wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Op: op, Table: table, Err: ErrNotFound}
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return &Error{Kind: KindConflict, Op: op, Table: table, Err: err}
	default:
		return &Error{Kind: KindBackend, Op: op, Table: table, Err: err}
	}
}
