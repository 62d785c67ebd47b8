package uuid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("version_7", func(t *testing.T) {
		id := New()
		if !IsValid(id) {
			t.Fatalf("expected valid uuid, got %q", id)
		}
		if id[14] != '7' {
			t.Errorf("expected version nibble 7, got %q", id)
		}
	})

	t.Run("time_ordered", func(t *testing.T) {
		a := New()
		b := New()
		if strings.Compare(a[:8], b[:8]) > 0 {
			t.Errorf("expected %s to sort before %s", a, b)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("normalizes_case", func(t *testing.T) {
		got, err := Parse("0190F2B4-7E3A-7C1D-9B2E-6A5F4C3D2E1F")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0190f2b4-7e3a-7c1d-9b2e-6a5f4c3d2e1f" {
			t.Errorf("unexpected normalized value %q", got)
		}
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		if _, err := Parse("not-a-uuid"); err == nil {
			t.Error("expected error")
		}
		if IsValid("") {
			t.Error("empty string should not be valid")
		}
	})
}
