package common

import (
	"fmt"
	"strings"
	"testing"
)

func TestIsVN(t *testing.T) {
	err := NewVNErr("Variable", NotFound, "A.x")

	if !IsVN(err, NotFound) {
		t.Fatalf("IsVN should match NotFound")
	}

	if IsVN(err, AlreadyExists) {
		t.Fatalf("IsVN should not match AlreadyExists")
	}

	wrapped := fmt.Errorf("resolving: %w", err)
	if !IsVN(wrapped, NotFound) {
		t.Fatalf("IsVN should see through wrapped errors")
	}

	if IsVN(ErrReservedIdentifier, NotFound) {
		t.Fatalf("IsVN should not match foreign errors")
	}

	if msg := err.Error(); !strings.Contains(msg, "A.x") || !strings.Contains(msg, "does not exist") {
		t.Fatalf("unexpected message: %s", msg)
	}
}
