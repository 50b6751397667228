package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the order and catalog engines.
const (
	CodeInvalidInput      = "InvalidInput"
	CodeItemNotFound      = "ItemNotFound"
	CodeInsufficientStock = "InsufficientStock"
	CodeOrderNotFound     = "OrderNotFound"
	CodeInternal          = "InternalError"
)

// Error is a standardized error carrying a machine-readable code, a
// human-readable message and optional details (which item, which field).
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP status code the boundary layer should use for
// this error.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeItemNotFound, CodeOrderNotFound:
		return http.StatusNotFound
	case CodeInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new Error
func New(code, message, details string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error constructors

func NewInvalidInput(message, field string) *Error {
	details := ""
	if field != "" {
		details = fmt.Sprintf("Field: %s", field)
	}
	return New(CodeInvalidInput, message, details)
}

func NewItemNotFound(itemID int64) *Error {
	return New(CodeItemNotFound, "item not found", fmt.Sprintf("Item ID: %d", itemID))
}

func NewInsufficientStock(itemName string, requested, available int) *Error {
	return New(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock: %s", itemName),
		fmt.Sprintf("Requested: %d, Available: %d", requested, available))
}

func NewOrderNotFound(orderID int64) *Error {
	return New(CodeOrderNotFound, "order not found", fmt.Sprintf("Order ID: %d", orderID))
}

func NewInternal(operation string, err error) *Error {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return New(CodeInternal, fmt.Sprintf("operation failed: %s", operation), details)
}

// CodeOf extracts the error code from err, or CodeInternal when err is not a
// domain Error.
func CodeOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given error code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
