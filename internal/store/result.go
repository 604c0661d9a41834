package store

// Result 保存一次读取的值或错误，用于并发扇出读取后逐项决定展示策略。
type Result[T any] struct {
	Value T
	Err   error
}

// Capture 把 (value, err) 二元组打包成 Result。
func Capture[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Err: err}
}

// OK 表示读取成功。
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Or 在失败时返回 fallback。
func (r Result[T]) Or(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// Kind 返回失败类别，成功时为空串。
func (r Result[T]) Kind() ErrorKind {
	return KindOf(r.Err)
}
