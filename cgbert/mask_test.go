package cgbert

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPaddingMask(t *testing.T) {
	got := PaddingMask([]int{3, 1}, 4)
	exp := []float32{
		1, 1, 1, 0,
		1, 0, 0, 0,
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("%s", diff)
	}
}

func TestPaddingMask_LengthAboveSeqLen(t *testing.T) {
	got := PaddingMask([]int{5}, 3)
	exp := []float32{1, 1, 1}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("%s", diff)
	}
}

func TestExtendedAttentionMask(t *testing.T) {
	got := ExtendedAttentionMask([]float32{1, 1, 0, 1})
	exp := []float32{0, 0, -10000, 0}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("%s", diff)
	}
}
