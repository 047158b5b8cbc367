package cgbert

import (
	"fmt"
	"math/rand"

	"github.com/nikolaydubina/cgbert.go/nn"
)

// activationFor resolves a config activation name to its implementation.
// The set is closed; resolution happens once at construction.
func activationFor(name string) (func(float32) float32, error) {
	switch name {
	case "gelu":
		return nn.GELU[float32], nil
	case "relu":
		return nn.ReLU[float32], nil
	case "swish":
		return nn.Swish[float32], nil
	default:
		return nil, fmt.Errorf("config: unknown activation %q", name)
	}
}

// linear: xout = W @ x + b, W stored row-major (len(xout), len(x)), b optional.
func linear(xout, x, w, b []float32) {
	nn.MatMul(xout, x, w)
	if b != nil {
		nn.Acc(xout, b)
	}
}

// dropout zeroes each element with probability p and scales the survivors
// by 1/(1-p) so the expected value is unchanged. A nil rng means inference:
// dropout is a no-op and the forward pass is deterministic.
func dropout(x []float32, p float32, rng *rand.Rand) {
	if rng == nil || p <= 0 {
		return
	}
	scale := 1 / (1 - p)
	for i := range x {
		if rng.Float32() < p {
			x[i] = 0
		} else {
			x[i] *= scale
		}
	}
}
