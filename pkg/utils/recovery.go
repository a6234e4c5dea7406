package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverWithCallback recovers from a panic and passes it to the callback
// as a PanicError. Use with defer inside worker goroutines where the error
// return pattern is not available.
func RecoverWithCallback(callback func(error)) {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		slog.Error("Recovered from panic", "panic", r, "stack", stack)
		if callback != nil {
			callback(&PanicError{Value: r, StackTrace: stack})
		}
	}
}
