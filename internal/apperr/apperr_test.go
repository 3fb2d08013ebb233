package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: New(NotFound, "artist not found"), want: http.StatusNotFound},
		{name: "conflict", err: New(Conflict, "username or email already exists"), want: http.StatusBadRequest},
		{name: "validation", err: Validation("name too short"), want: http.StatusBadRequest},
		{name: "unauthenticated", err: New(Unauthenticated, "invalid token"), want: http.StatusUnauthorized},
		{name: "forbidden", err: New(Forbidden, "forbidden"), want: http.StatusForbidden},
		{name: "wrapped kind", err: fmt.Errorf("get artist: %w", New(NotFound, "artist not found")), want: http.StatusNotFound},
		{name: "untagged", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMessageHidesInternalFaults(t *testing.T) {
	internal := Wrap(Internal, "hash password", errors.New("bcrypt: cost out of range"))
	if got := Message(internal); got != "internal server error" {
		t.Fatalf("expected generic message, got %q", got)
	}
	if IsOperational(internal) {
		t.Fatalf("internal error must not be operational")
	}

	notFound := New(NotFound, "playlist not found")
	if got := Message(fmt.Errorf("load: %w", notFound)); got != "playlist not found" {
		t.Fatalf("expected operational message, got %q", got)
	}
	if !IsOperational(notFound) {
		t.Fatalf("not found must be operational")
	}
}

func TestSentinelIdentity(t *testing.T) {
	sentinel := New(Conflict, "already exists")
	wrapped := fmt.Errorf("create: %w", sentinel)

	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("errors.Is should match the sentinel through wrapping")
	}
	if errors.Is(wrapped, New(Conflict, "already exists")) {
		t.Fatalf("distinct values must not compare equal")
	}
	if !Is(wrapped, Conflict) {
		t.Fatalf("Is should report Conflict")
	}
}
