package hal

import (
	"errors"
	"fmt"
	"testing"
)

func TestFaultWrapping(t *testing.T) {
	err := error(&Fault{Op: "serial read", Err: ErrOverrun})

	if !errors.Is(err, ErrOverrun) {
		t.Errorf("Fault should unwrap to its cause")
	}
	if errors.Is(err, ErrFraming) {
		t.Errorf("Fault should not match an unrelated cause")
	}
	if got := err.Error(); got != "serial read: overrun error" {
		t.Errorf("unexpected message %q", got)
	}

	wrapped := fmt.Errorf("echo: %w", err)
	if !IsFault(wrapped) {
		t.Errorf("IsFault should see through fmt wrapping")
	}
	if IsFault(ErrWouldBlock) {
		t.Errorf("ErrWouldBlock is not a fault")
	}
}

func TestBlock(t *testing.T) {
	tests := []struct {
		name  string
		ready int
		final error
	}{
		{"ready at once", 0, nil},
		{"ready after polls", 5, nil},
		{"fault after polls", 3, &Fault{Op: "serial read", Err: ErrParity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polls := 0
			err := Block(func() error {
				polls++
				if polls <= tt.ready {
					return ErrWouldBlock
				}
				return tt.final
			})
			if err != tt.final {
				t.Fatalf("expected %v, got %v", tt.final, err)
			}
			if polls != tt.ready+1 {
				t.Errorf("expected %d polls, got %d", tt.ready+1, polls)
			}
		})
	}
}
