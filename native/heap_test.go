package native

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestHeapAllocSkipsReservedBlock(t *testing.T) {
	h := newHeap(4)
	off := h.alloc()
	if off != BlockSize {
		t.Fatalf("expected first block at %d, got %d", BlockSize, off)
	}
	if got := h.load(off); got != mgl32.Ident4() {
		t.Fatalf("expected fresh block to hold identity, got %v", got)
	}
	if len(h.Bytes()) != h.Len() {
		t.Fatalf("Bytes length %d does not match Len %d", len(h.Bytes()), h.Len())
	}
}

func TestHeapGrowKeepsContents(t *testing.T) {
	h := newHeap(2)
	first := h.alloc()
	want := mgl32.Translate3D(1, 2, 3)
	h.store(first, want)
	before := h.Bytes()

	second := h.alloc()
	if h.Grows() != 1 {
		t.Fatalf("expected one reallocation, got %d", h.Grows())
	}
	if h.Len() != 4*BlockSize {
		t.Fatalf("expected heap of %d bytes, got %d", 4*BlockSize, h.Len())
	}
	if second != 2*BlockSize {
		t.Fatalf("expected second block at %d, got %d", 2*BlockSize, second)
	}
	if got := h.load(first); got != want {
		t.Fatalf("block lost across growth: got %v want %v", got, want)
	}

	if &before[0] == &h.Bytes()[0] {
		t.Fatalf("expected growth to move the backing array")
	}
}

func TestHeapReleaseReuse(t *testing.T) {
	cases := []struct {
		name    string
		release Offset
		reused  bool
	}{
		{"allocated_block", BlockSize, true},
		{"reserved_block", 0, false},
		{"misaligned", BlockSize + 4, false},
		{"past_top", 10 * BlockSize, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHeap(8)
			a := h.alloc()
			h.store(a, mgl32.Translate3D(5, 5, 5))
			_ = h.alloc()

			h.release(c.release)
			next := h.alloc()
			if c.reused {
				if next != a {
					t.Fatalf("expected released block %d to be reused, got %d", a, next)
				}
				if got := h.load(next); got != mgl32.Ident4() {
					t.Fatalf("expected reused block reset to identity, got %v", got)
				}
				return
			}
			if next != 3*BlockSize {
				t.Fatalf("expected fresh block at %d, got %d", 3*BlockSize, next)
			}
		})
	}
}
