package core

import "testing"

func TestEnsureLen(t *testing.T) {
	var buf []int16

	buf = EnsureLen(buf, 8)
	if len(buf) != 8 {
		t.Fatalf("len = %d, want 8", len(buf))
	}

	buf[0] = 42
	shrunk := EnsureLen(buf, 4)
	if len(shrunk) != 4 {
		t.Fatalf("len = %d, want 4", len(shrunk))
	}
	if shrunk[0] != 42 {
		t.Fatal("shrink must not reallocate")
	}

	big := EnsureLen(shrunk, 64)
	if len(big) != 64 {
		t.Fatalf("len = %d, want 64", len(big))
	}

	if got := EnsureLen(big, 0); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestCopyInto(t *testing.T) {
	src := []float32{1, 2, 3}
	dst := make([]float32, 2)
	if n := CopyInto(dst, src); n != 2 {
		t.Fatalf("CopyInto() = %d, want 2", n)
	}
	if dst[0] != 1 || dst[1] != 2 {
		t.Fatalf("dst = %v, want [1 2]", dst)
	}
	if n := CopyInto(dst, nil); n != 0 {
		t.Fatalf("CopyInto() = %d, want 0", n)
	}
}
