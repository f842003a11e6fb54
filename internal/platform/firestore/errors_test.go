package firestore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapErrorClassification(t *testing.T) {
	cases := []struct {
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{codes.NotFound, true, false, false},
		{codes.FailedPrecondition, false, true, false},
		{codes.Aborted, false, false, true},
		{codes.Unavailable, false, false, true},
		{codes.PermissionDenied, false, false, false},
	}
	for _, tc := range cases {
		err := WrapError("orders.get", status.Error(tc.code, "boom"))
		var wrapped *Error
		if !errors.As(err, &wrapped) {
			t.Fatalf("%s: expected *Error, got %T", tc.code, err)
		}
		if wrapped.IsNotFound() != tc.notFound || wrapped.IsConflict() != tc.conflict || wrapped.IsUnavailable() != tc.unavailable {
			t.Fatalf("%s: unexpected classification %+v", tc.code, wrapped)
		}
	}
}

func TestWrapErrorPassesContextErrors(t *testing.T) {
	if err := WrapError("carts.get", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WrapError("carts.get", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapErrorKeepsExistingClassification(t *testing.T) {
	inner := WrapError("favorites.add", status.Error(codes.FailedPrecondition, "limit"))
	outer := WrapError("transaction", fmt.Errorf("tx: %w", inner))

	var wrapped *Error
	if !errors.As(outer, &wrapped) || !wrapped.IsConflict() {
		t.Fatalf("expected conflict classification to survive, got %v", outer)
	}
	if !IsNotFound(status.Error(codes.NotFound, "missing")) {
		t.Fatalf("expected raw status to be recognised as not found")
	}
}
