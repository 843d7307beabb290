package recovery

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecoverToValueNoPanic(t *testing.T) {
	got, err := RecoverToValue(slog.Default(), "op", func() (string, error) {
		return "(a eq 1)", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(a eq 1)" {
		t.Errorf("expected '(a eq 1)', got '%s'", got)
	}
}

func TestRecoverToValuePassesErrors(t *testing.T) {
	want := errors.New("boom")
	_, err := RecoverToValue(slog.Default(), "op", func() (int, error) {
		return 0, want
	})
	if err != want {
		t.Errorf("expected original error, got %v", err)
	}
}

func TestRecoverToValuePanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := RecoverToValue(logger, "compile predicate 2", func() (string, error) {
		panic("captured value exploded")
	})
	if got != "" {
		t.Errorf("expected zero value, got '%s'", got)
	}
	if err == nil {
		t.Fatal("expected error from panic")
	}
	if status.Code(err) != codes.Internal {
		t.Errorf("expected codes.Internal, got %v", status.Code(err))
	}
	if !strings.Contains(err.Error(), "compile predicate 2 panicked: captured value exploded") {
		t.Errorf("unexpected error message: %v", err)
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}
