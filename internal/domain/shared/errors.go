package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the fulfillment core
const (
	CodeNotFound          = "NOT_FOUND"
	CodeEmptyCart         = "EMPTY_CART"
	CodeNoInventoryRecord = "NO_INVENTORY_RECORD"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeTransientConflict = "TRANSIENT_CONFLICT"
	CodeInvalidInput      = "INVALID_INPUT"
)

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrEmptyCart         = NewDomainError(CodeEmptyCart, "Cart is empty")
	ErrNoInventoryRecord = NewDomainError(CodeNoInventoryRecord, "No inventory record exists for product")
	ErrTransientConflict = NewDomainError(CodeTransientConflict, "Resource was modified by another transaction")
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "Invalid input provided")
)

// NewInsufficientStockError builds an INSUFFICIENT_STOCK error naming the
// product and the quantities involved.
func NewInsufficientStockError(productName string, available, requested int64) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", productName, available, requested))
}

// NewInvalidTransitionError builds an INVALID_TRANSITION error naming the
// attempted source and target states.
func NewInvalidTransitionError(from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Invalid status transition from %s to %s", from, to))
}

// ErrorCode extracts the domain error code from err, or "" if err is not a DomainError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsTransientConflict reports whether err is a lock/version conflict that the
// caller may retry.
func IsTransientConflict(err error) bool {
	return ErrorCode(err) == CodeTransientConflict
}
