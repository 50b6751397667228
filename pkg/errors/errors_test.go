package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NewInvalidInput("bad", "field"), http.StatusBadRequest},
		{NewItemNotFound(1), http.StatusNotFound},
		{NewOrderNotFound(1), http.StatusNotFound},
		{NewInsufficientStock("Rose", 5, 2), http.StatusConflict},
		{NewInternal("query", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.err.Code, tc.want, got)
		}
	}
}

func TestCodeOf(t *testing.T) {
	if code := CodeOf(NewItemNotFound(7)); code != CodeItemNotFound {
		t.Errorf("Expected %s, got %s", CodeItemNotFound, code)
	}
	if code := CodeOf(fmt.Errorf("plain error")); code != CodeInternal {
		t.Errorf("Expected %s for non-domain error, got %s", CodeInternal, code)
	}
}

func TestCodeOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("placing order: %w", NewInsufficientStock("Rose", 3, 1))
	if !Is(wrapped, CodeInsufficientStock) {
		t.Error("Expected wrapped error to carry InsufficientStock")
	}
}

func TestInsufficientStockDetails(t *testing.T) {
	err := NewInsufficientStock("Rose", 5, 2)
	if err.Details != "Requested: 5, Available: 2" {
		t.Errorf("Unexpected details: %q", err.Details)
	}
	if err.Error() != "insufficient stock: Rose" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}
