package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestDomainErrorMessage(t *testing.T) {
	t.Parallel()

	err := SourceUnavailable("fetching postings", io.ErrUnexpectedEOF)
	want := "SOURCE_UNAVAILABLE: fetching postings: unexpected EOF"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected wrapped error to be unwrappable")
	}

	if len(err.StackTrace()) == 0 {
		t.Fatalf("expected stack to be captured")
	}

	bare := EmptyDataset("no usable postings")
	if bare.Error() != "EMPTY_DATASET: no usable postings" {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
}

func TestIsType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		kind   ErrorType
		expect bool
	}{
		{name: "direct", err: Load("reading csv", io.EOF), kind: ErrTypeLoad, expect: true},
		{name: "wrapped with fmt", err: fmt.Errorf("run: %w", SourceUnavailable("search", nil)), kind: ErrTypeSourceUnavailable, expect: true},
		{name: "nested domain error", err: Internal("pipeline", MalformedRecord("row 3", nil)), kind: ErrTypeMalformedRecord, expect: true},
		{name: "other kind", err: Load("reading csv", nil), kind: ErrTypeEmptyDataset, expect: false},
		{name: "plain error", err: io.EOF, kind: ErrTypeLoad, expect: false},
		{name: "nil", err: nil, kind: ErrTypeLoad, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsType(tt.err, tt.kind); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}
