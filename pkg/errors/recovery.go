// gonum は形状の不一致を mat.ErrShape などの panic で報告する。
// ここではそれを通常のエラーに変換し、学習ループに返す。

package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError は recover した panic から作られたエラーです。
type PanicError struct {
	// PanicValue は panic() に渡された値
	PanicValue interface{}

	// StackTrace は panic 発生時のスタックトレース
	StackTrace string

	// Operation は panic を recover した操作名
	Operation string
}

// Error は error インターフェースを実装します。
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap は panic の値がエラーだった場合にそれを返します。
// errors.Is で mat.ErrShape などを判定できます。
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// String はスタックトレースを含む詳細を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError は操作名と panic の値から PanicError を作成します。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover は defer で使い、panic をエラーに変換して *err に代入します。
//
// 使用例:
//
//	func (s *Sequential) step(b *dataset.Batch, index int, train bool) (loss float64, probs *mat.Dense, err error) {
//	    defer Recover(&err, "Sequential.step")
//	    ...
//	}
//
// 関数がすでにエラーを返していた場合、panic はそのエラーに付加されます。
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		panicErr := NewPanicError(operation, r)

		if *err != nil {
			*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		} else {
			*err = panicErr
		}
	}
}

// SafeExecute は fn を実行し、panic を PanicError に変換します。
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
