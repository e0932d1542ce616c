package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("ad not found: %w", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("not the owner: %w", ErrForbidden), http.StatusForbidden},
		{"conflict", fmt.Errorf("already favorited: %w", ErrConflict), http.StatusConflict},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"app error", New(http.StatusTeapot, "short and stout", nil), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MapErrorToStatus(tc.err); got != tc.want {
				t.Fatalf("MapErrorToStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestFromDB(t *testing.T) {
	if FromDB(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	if !errors.Is(FromDB(gorm.ErrRecordNotFound), ErrNotFound) {
		t.Fatal("record not found should map to ErrNotFound")
	}
	if !errors.Is(FromDB(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrConflict) {
		t.Fatal("duplicated key should map to ErrConflict")
	}

	other := errors.New("connection reset")
	if FromDB(other) != other {
		t.Fatal("unrelated errors must pass through untouched")
	}
}

func TestAppErrorMessage(t *testing.T) {
	inner := errors.New("inner")
	err := New(http.StatusBadRequest, "", inner)
	if err.Error() != "inner" {
		t.Fatalf("got %q, want inner", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Fatal("AppError must unwrap to its cause")
	}
}
