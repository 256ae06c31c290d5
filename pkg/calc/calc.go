// Package calc implements the arithmetic operations the service exposes
package calc

import "errors"

// ErrDivisionByZero is returned when a divide request carries a zero divisor
var ErrDivisionByZero = errors.New("division by zero")

// Operation is one arithmetic operation over 64-bit signed integers.
// Overflow wraps, matching the two's-complement arithmetic of the peers
// this service interoperates with.
type Operation func(a, b int64) (int64, error)

func Add(a, b int64) (int64, error) {
	return a + b, nil
}

func Subtract(a, b int64) (int64, error) {
	return a - b, nil
}

func Multiply(a, b int64) (int64, error) {
	return a * b, nil
}

// Divide truncates toward zero
func Divide(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// Operations maps operation names to their implementations
func Operations() map[string]Operation {
	return map[string]Operation{
		"add":      Add,
		"subtract": Subtract,
		"multiply": Multiply,
		"divide":   Divide,
	}
}
