package nn_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nikolaydubina/cgbert.go/nn"
)

func TestAcc(t *testing.T) {
	a := []float32{1, 2, 3, 0, -1}
	b := []float32{4, 5, 6, 0, 1}
	nn.Acc(a, b)
	if a[0] != 5 || a[1] != 7 || a[2] != 9 || a[3] != 0 || a[4] != 0 {
		t.Errorf("Acc failed")
	}
}

func TestSoftMax(t *testing.T) {
	tests := []struct {
		x   []float32
		exp []float32
	}{
		{
			x:   []float32{1, 1, 2},
			exp: []float32{0.21194156, 0.21194156, 0.57611686},
		},
		{
			x:   []float32{0.5, -1, 12},
			exp: []float32{1.0129968e-05, 2.2603015e-06, 0.9999876},
		},
		{
			x:   []float32{0.2, 7, 13},
			exp: []float32{2.7539384e-06, 0.0024726165, 0.9975247},
		},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d: %#v", i, tc), func(t *testing.T) {
			nn.SoftMax(tc.x)
			if diff := cmp.Diff(tc.exp, tc.x); diff != "" {
				t.Errorf("%s", diff)
			}
		})
	}
}

func TestSoftMax_SumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		x := make([]float32, 1+rng.Intn(64))
		for j := range x {
			x[j] = float32(rng.NormFloat64() * 10)
		}
		nn.SoftMax(x)
		var sum float32
		for _, v := range x {
			if v < 0 {
				t.Fatalf("negative probability %f", v)
			}
			sum += v
		}
		if math.Abs(float64(sum)-1) > 1e-5 {
			t.Errorf("probabilities sum to %f, expected 1", sum)
		}
	}
}

func TestLayerNorm(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		x := make([]float32, 8+rng.Intn(64))
		for j := range x {
			x[j] = float32(rng.NormFloat64()*3 + 7)
		}
		gamma := make([]float32, len(x))
		beta := make([]float32, len(x))
		for j := range gamma {
			gamma[j] = 1
		}

		o := make([]float32, len(x))
		nn.LayerNorm(o, x, gamma, beta, 1e-12)

		// unit scale and zero shift: output has mean 0 and variance 1
		var mean float64
		for _, v := range o {
			mean += float64(v)
		}
		mean /= float64(len(o))
		var variance float64
		for _, v := range o {
			variance += (float64(v) - mean) * (float64(v) - mean)
		}
		variance /= float64(len(o))

		if math.Abs(mean) > 1e-5 {
			t.Errorf("mean %f, expected 0", mean)
		}
		if math.Abs(variance-1) > 1e-4 {
			t.Errorf("variance %f, expected 1", variance)
		}
	}
}

func TestLayerNorm_ScaleShift(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	gamma := []float32{2, 2, 2, 2}
	beta := []float32{1, 1, 1, 1}
	o := make([]float32, 4)
	nn.LayerNorm(o, x, gamma, beta, 0)
	// (x - 2.5) / sqrt(1.25), scaled by 2, shifted by 1
	exp := []float32{-1.6832816, 0.10557281, 1.8944272, 3.6832817}
	if diff := cmp.Diff(exp, o, cmpopts.EquateApprox(1e-5, 1e-6)); diff != "" {
		t.Errorf("%s", diff)
	}
}

func TestGELU(t *testing.T) {
	tests := []struct {
		x   float64
		exp float64
	}{
		{x: 0, exp: 0},
		{x: 1, exp: 0.8413447460685429},
		{x: -1, exp: -0.15865525393145707},
		{x: 2, exp: 1.9544997361036416},
		{x: -2, exp: -0.04550026389635842},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d: %#v", i, tc), func(t *testing.T) {
			if got := nn.GELU(tc.x); math.Abs(got-tc.exp) > 1e-12 {
				t.Errorf("got %v, exp %v", got, tc.exp)
			}
		})
	}
}

func TestSigmoid(t *testing.T) {
	if got := nn.Sigmoid(0.0); got != 0.5 {
		t.Errorf("sigmoid(0) = %v, expected 0.5", got)
	}
	for _, x := range []float64{-100, -1, 0, 1, 100} {
		got := nn.Sigmoid(x)
		if !(got > 0 && got < 1) {
			t.Errorf("sigmoid(%v) = %v, expected strictly in (0, 1)", x, got)
		}
	}
}

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	if got := nn.Dot(a, b); got != 32 {
		t.Errorf("got %v, exp 32", got)
	}
}

func TestMatMul(t *testing.T) {
	tests := []struct {
		x          []float32
		w          []float32
		exp        []float32
		numThreads int
	}{
		{
			x:          []float32{1, 2, 3, 4, 5},
			w:          []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			exp:        []float32{1 + 4 + 9 + 16 + 25, 6 + 14 + 24 + 36 + 50},
			numThreads: 8,
		},
		{
			x:          []float32{1, 2, 3},
			w:          []float32{1, 2, 3, 4, 5, 6},
			exp:        []float32{1 + 4 + 9, 4 + 10 + 18},
			numThreads: 8,
		},
		{
			x:          []float32{1, 2, 3},
			w:          []float32{1, 2, 3, 4, 5, 6, 7, 8, 9},
			exp:        []float32{1 + 4 + 9, 4 + 10 + 18, 7 + 16 + 27},
			numThreads: 2,
		},
		{
			x:          []float32{1, 2, 3},
			w:          []float32{1, 2, 3, 4, 5, 6, 7, 8, 9},
			exp:        []float32{1 + 4 + 9, 4 + 10 + 18, 7 + 16 + 27},
			numThreads: 3,
		},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			got := make([]float32, len(tc.exp))
			nn.NumThreads = tc.numThreads
			nn.MatMul(got, tc.x, tc.w)
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("%s", diff)
			}
		})
	}
}

func TestArgMax(t *testing.T) {
	tests := []struct {
		x   []float32
		exp int
	}{
		{
			x:   []float32{1, 1, 2},
			exp: 2,
		},
		{
			x:   []float32{0.5, -1, 12, 0},
			exp: 2,
		},
		{
			x:   []float32{15, 7, 13},
			exp: 0,
		},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d: %#v", i, tc), func(t *testing.T) {
			if got := nn.ArgMax(tc.x); got != tc.exp {
				t.Errorf("got %d, exp %d", got, tc.exp)
			}
		})
	}
}
