package nn

import (
	"math"
	"sync"
)

var NumThreads = 8

func Acc[T float32 | float64](a, b []T) {
	for i := range a {
		a[i] += b[i]
	}
}

// LayerNorm normalizes x over its full length with learned scale and shift:
// o = gamma * (x - mean) / sqrt(var + eps) + beta.
// Epsilon is added inside the square root (TF style).
func LayerNorm[T float32 | float64](o, x, gamma, beta []T, eps T) {
	var mean T
	for _, v := range x {
		mean += v
	}
	mean /= T(len(x))
	var variance T
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= T(len(x))
	s := T(math.Sqrt(float64(variance + eps)))
	for i, v := range x {
		o[i] = gamma[i]*((v-mean)/s) + beta[i]
	}
}

func SoftMax[T float32 | float64](x []T) {
	// find max for numerical stability
	max := x[0]
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	// exp and sum
	var sum T
	for i := range x {
		x[i] = T(math.Exp(float64(x[i] - max)))
		sum += x[i]
	}
	// normalize
	for i := range x {
		x[i] /= sum
	}
}

func Sigmoid[T float32 | float64](x T) T {
	return T(1 / (1 + math.Exp(-float64(x))))
}

// GELU is the exact erf-based Gaussian Error Linear Unit,
// x * 0.5 * (1 + erf(x / sqrt(2))), not the tanh approximation.
func GELU[T float32 | float64](x T) T {
	return x * 0.5 * T(1+math.Erf(float64(x)/math.Sqrt2))
}

func ReLU[T float32 | float64](x T) T {
	if x < 0 {
		return 0
	}
	return x
}

// Swish is x * sigmoid(x), also known as SiLU.
func Swish[T float32 | float64](x T) T {
	return x * Sigmoid(x)
}

func Tanh[T float32 | float64](x T) T {
	return T(math.Tanh(float64(x)))
}

func Dot[T float32 | float64](a, b []T) T {
	var sum T
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// MatMulUnroll in to multiple inlined operations
func MatMulUnroll[T float32 | float64](xout, x, w []T) {
	for i := range xout {
		var sum T
		j := 0
		for ; (j + 4) < len(x); j += 4 {
			sum += w[i*len(x)+j] * x[j]
			sum += w[i*len(x)+j+1] * x[j+1]
			sum += w[i*len(x)+j+2] * x[j+2]
			sum += w[i*len(x)+j+3] * x[j+3]
		}
		for ; j < len(x); j++ {
			sum += w[i*len(x)+j] * x[j]
		}
		xout[i] = sum
	}
}

// MatMulParallel chunks horizontally across cache lines and parallelizes
func MatMulParallel[T float32 | float64](xout, x, w []T) {
	n, m := len(xout), len(x)
	if n < NumThreads {
		MatMulUnroll(xout, x, w)
		return
	}
	var wg sync.WaitGroup
	wg.Add(NumThreads)
	for i := 0; i < NumThreads; i++ {
		rowStart := i * n / NumThreads
		rowEnd := (i + 1) * n / NumThreads
		if i == NumThreads-1 {
			rowEnd = n
		}
		go func(rowStart, rowEnd int) { MatMulUnroll(xout[rowStart:rowEnd], x, w[m*rowStart:m*rowEnd]); wg.Done() }(rowStart, rowEnd)
	}
	wg.Wait()
}

// MatMul: W (d,n) @ x (n,) -> xout (d,)
func MatMul[T float32 | float64](xout, x, w []T) { MatMulParallel(xout, x, w) }

func ArgMax[T float32 | float64](v []T) int {
	maxi, maxv := 0, v[0]
	for i, v := range v {
		if v > maxv {
			maxv, maxi = v, i
		}
	}
	return maxi
}
