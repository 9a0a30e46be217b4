package diag

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestRecoverCapturesFatal(t *testing.T) {
	err := func() (err error) {
		defer Recover(&err)
		Fatalf(WidthMismatch, "add operands have widths %d and %d", 8, 4)
		return nil
	}()
	if err == nil {
		t.Fatalf("expected error")
	}
	if kind, ok := KindOf(err); !ok || kind != WidthMismatch {
		t.Fatalf("expected width mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "widths 8 and 4") {
		t.Fatalf("message lost: %v", err)
	}
}

func TestRecoverRepanicsForeignPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("foreign panic should propagate")
		}
	}()
	func() (err error) {
		defer Recover(&err)
		panic("not ours")
	}()
}

func TestWrapKeepsKind(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(IO, base, "write module")
	if kind, ok := KindOf(err); !ok || kind != IO {
		t.Fatalf("expected io kind, got %v", err)
	}
	if Wrap(IO, nil, "noop") != nil {
		t.Fatalf("wrapping nil should stay nil")
	}
}
