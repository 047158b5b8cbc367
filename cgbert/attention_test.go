package cgbert

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestGate_StrictlyInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		n := 1 + rng.Intn(16)
		wContext := make([]float32, n)
		wOwn := make([]float32, n)
		context := make([]float32, n)
		own := make([]float32, n)
		for j := 0; j < n; j++ {
			wContext[j] = float32(rng.NormFloat64() * 10)
			wOwn[j] = float32(rng.NormFloat64() * 10)
			context[j] = float32(rng.NormFloat64() * 10)
			own[j] = float32(rng.NormFloat64() * 10)
		}
		if g := gate(wContext, context, wOwn, own); !(g > 0 && g < 1) {
			t.Errorf("gate = %v, expected strictly in (0, 1)", g)
		}
	}
}

func TestGate_ZeroWeightsIsHalf(t *testing.T) {
	wContext := make([]float32, 4)
	wOwn := make([]float32, 4)
	if g := gate(wContext, []float32{1, 2, 3, 4}, wOwn, []float32{5, 6, 7, 8}); g != 0.5 {
		t.Errorf("gate with zero weights = %v, expected 0.5", g)
	}
}

// A gate value of zero must reproduce the token's own query/key exactly,
// i.e. the vanilla attention path.
func TestInterpolate_ZeroGateIsVanilla(t *testing.T) {
	own := []float32{1.5, -2.25, 0, 3.125}
	context := []float32{9, 9, 9, 9}
	dst := make([]float32, 4)
	interpolate(dst, own, context, 0)
	if diff := cmp.Diff(own, dst); diff != "" {
		t.Errorf("%s", diff)
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		own     []float32
		context []float32
		g       float32
		exp     []float32
	}{
		{
			own:     []float32{2, 4},
			context: []float32{0, 0},
			g:       1,
			exp:     []float32{0, 0},
		},
		{
			own:     []float32{2, 4},
			context: []float32{0, 2},
			g:       0.5,
			exp:     []float32{1, 3},
		},
		{
			own:     []float32{8, 0},
			context: []float32{0, 8},
			g:       0.25,
			exp:     []float32{6, 2},
		},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d: %#v", i, tc), func(t *testing.T) {
			dst := make([]float32, len(tc.own))
			interpolate(dst, tc.own, tc.context, tc.g)
			if diff := cmp.Diff(tc.exp, dst); diff != "" {
				t.Errorf("%s", diff)
			}
		})
	}
}

// With every key position masked except one, softmax drives that position's
// probability to 1 and attention output equals that position's value vector.
func TestSelfAttention_SingleUnmaskedPosition(t *testing.T) {
	config := testConfig()
	batch, seqLen := 1, 4
	hidden := config.HiddenSize

	rng := rand.New(rand.NewSource(42))
	a := newSelfAttention(config)
	a.DropoutProb = 0
	normalInit(a.WQ, 0.5, rng)
	normalInit(a.WK, 0.5, rng)
	normalInit(a.WV, 0.5, rng)
	normalInit(a.WContextQ, 0.5, rng)
	normalInit(a.WContextK, 0.5, rng)
	normalInit(a.GateQContext, 0.5, rng)
	normalInit(a.GateQQuery, 0.5, rng)
	normalInit(a.GateKContext, 0.5, rng)
	normalInit(a.GateKKey, 0.5, rng)

	hiddenStates := make([]float32, batch*seqLen*hidden)
	context := make([]float32, batch*seqLen*hidden)
	for i := range hiddenStates {
		hiddenStates[i] = float32(rng.NormFloat64())
		context[i] = float32(rng.NormFloat64())
	}

	// only key position 2 is attendable
	mask := PaddingMask([]int{seqLen}, seqLen)
	for j := range mask {
		if j != 2 {
			mask[j] = 0
		}
	}

	out := a.Forward(hiddenStates, ExtendedAttentionMask(mask), context, batch, seqLen, nil)

	// expected: the value projection of position 2, at every query position
	v2 := make([]float32, hidden)
	linear(v2, hiddenStates[(2*hidden):(3*hidden)], a.WV, a.BV)
	for s := 0; s < seqLen; s++ {
		got := out[(s * hidden):((s + 1) * hidden)]
		if diff := cmp.Diff(v2, got, cmpopts.EquateApprox(1e-5, 1e-6)); diff != "" {
			t.Errorf("query position %d: %s", s, diff)
		}
	}
}

func TestSelfAttention_Deterministic(t *testing.T) {
	config := testConfig()
	batch, seqLen := 2, 5
	hidden := config.HiddenSize

	rng := rand.New(rand.NewSource(42))
	a := newSelfAttention(config)
	normalInit(a.WQ, 0.02, rng)
	normalInit(a.WK, 0.02, rng)
	normalInit(a.WV, 0.02, rng)
	normalInit(a.WContextQ, 0.02, rng)
	normalInit(a.WContextK, 0.02, rng)

	hiddenStates := make([]float32, batch*seqLen*hidden)
	context := make([]float32, batch*seqLen*hidden)
	for i := range hiddenStates {
		hiddenStates[i] = float32(rng.NormFloat64())
		context[i] = float32(rng.NormFloat64())
	}
	mask := ExtendedAttentionMask(PaddingMask([]int{seqLen, seqLen}, seqLen))

	// nil rng disables attention dropout: bit-identical outputs
	a1 := a.Forward(hiddenStates, mask, context, batch, seqLen, nil)
	a2 := a.Forward(hiddenStates, mask, context, batch, seqLen, nil)
	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("%s", diff)
	}
}
