package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessageFallbacks(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"cause", New(http.StatusBadRequest, "request_invalid", errors.New("bad body")), "bad body"},
		{"code", New(http.StatusConflict, "idempotency_conflict", nil), "idempotency_conflict"},
		{"status", New(http.StatusTeapot, "", nil), "api error (418)"},
		{"empty", &Error{}, "api error"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("%s: want=%q got=%q", tc.name, tc.want, got)
		}
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(http.StatusNotFound, "payout_not_found", nil))
	e, ok := As(wrapped)
	if !ok || e.Status != http.StatusNotFound {
		t.Fatalf("As: ok=%v err=%v", ok, e)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Fatalf("As: expected false for plain error")
	}
}

func TestInternalIsGeneric(t *testing.T) {
	e := Internal()
	if e.Status != http.StatusInternalServerError || e.Code != "internal_error" {
		t.Fatalf("unexpected internal error: %+v", e)
	}
	if e.Error() != "something went wrong" {
		t.Fatalf("message: got=%q", e.Error())
	}
}
