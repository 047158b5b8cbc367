package cgbert

import (
	"math"
	"math/rand"

	"github.com/nikolaydubina/cgbert.go/nn"
)

// SelfAttention is multi-head self-attention with context-gated queries and keys.
//
// The context tensor is shared across heads; the per-head projections WContextQ
// and WContextK are what differentiate it. Each head then computes a scalar gate
// per position and interpolates its own query/key with the projected context:
//
//	Q' = (1 - gate_q) * Q + gate_q * Context_Q
//	K' = (1 - gate_k) * K + gate_k * Context_K
//
// Values are not gated. Attention scores use Q' and K' in place of Q and K.
type SelfAttention struct {
	NumHeads int
	HeadSize int

	WQ []float32 // (hidden, hidden)
	BQ []float32 // (hidden,)
	WK []float32 // (hidden, hidden)
	BK []float32 // (hidden,)
	WV []float32 // (hidden, hidden)
	BV []float32 // (hidden,)

	// context projections, one (head_size, head_size) matrix each, shared across heads
	WContextQ []float32 // (head_size, head_size)
	BContextQ []float32 // (head_size,)
	WContextK []float32 // (head_size, head_size)
	BContextK []float32 // (head_size,)

	// gate weight vectors, reduce a head slice to one scalar, no bias
	GateQContext []float32 // (head_size,)
	GateQQuery   []float32 // (head_size,)
	GateKContext []float32 // (head_size,)
	GateKKey     []float32 // (head_size,)

	DropoutProb float32
}

func newSelfAttention(config Config) SelfAttention {
	hidden := config.HiddenSize
	headSize := config.HeadSize()
	return SelfAttention{
		NumHeads:     config.NumAttentionHeads,
		HeadSize:     headSize,
		WQ:           make([]float32, hidden*hidden),
		BQ:           make([]float32, hidden),
		WK:           make([]float32, hidden*hidden),
		BK:           make([]float32, hidden),
		WV:           make([]float32, hidden*hidden),
		BV:           make([]float32, hidden),
		WContextQ:    make([]float32, headSize*headSize),
		BContextQ:    make([]float32, headSize),
		WContextK:    make([]float32, headSize*headSize),
		BContextK:    make([]float32, headSize),
		GateQContext: make([]float32, headSize),
		GateQQuery:   make([]float32, headSize),
		GateKContext: make([]float32, headSize),
		GateKKey:     make([]float32, headSize),
		DropoutProb:  config.AttentionProbsDropoutProb,
	}
}

// gate computes sigmoid(wContext . context + wOwn . own), the scalar
// interpolation weight for one (batch, head, position). Strictly in (0, 1)
// for finite inputs.
func gate(wContext, context, wOwn, own []float32) float32 {
	return nn.Sigmoid(nn.Dot(wContext, context) + nn.Dot(wOwn, own))
}

// interpolate: dst = (1-g)*own + g*context. A gate of 0 reproduces own exactly,
// which is the vanilla attention path.
func interpolate(dst, own, context []float32, g float32) {
	for i := range dst {
		dst[i] = (1-g)*own[i] + g*context[i]
	}
}

// Forward computes context-gated attention over hiddenStates (batch, seq_len, hidden).
// attentionMask is the additive (batch, seq_len) mask with 0 for attendable and
// -10000 for masked key positions, broadcast over heads and query positions.
// context has the hidden state's shape. Returns (batch, seq_len, hidden).
func (a *SelfAttention) Forward(hiddenStates, attentionMask, context []float32, batch, seqLen int, rng *rand.Rand) []float32 {
	headSize := a.HeadSize
	hidden := a.NumHeads * headSize

	q := make([]float32, batch*seqLen*hidden)
	k := make([]float32, batch*seqLen*hidden)
	v := make([]float32, batch*seqLen*hidden)
	for p := 0; p < batch*seqLen; p++ {
		x := hiddenStates[(p * hidden):((p + 1) * hidden)]
		linear(q[(p*hidden):((p+1)*hidden)], x, a.WQ, a.BQ)
		linear(k[(p*hidden):((p+1)*hidden)], x, a.WK, a.BK)
		linear(v[(p*hidden):((p+1)*hidden)], x, a.WV, a.BV)
	}

	// project context per head, gate, and interpolate into contextualized q and k
	cq := make([]float32, batch*seqLen*hidden)
	ck := make([]float32, batch*seqLen*hidden)
	contextQ := make([]float32, headSize)
	contextK := make([]float32, headSize)
	for p := 0; p < batch*seqLen; p++ {
		for h := 0; h < a.NumHeads; h++ {
			off := p*hidden + h*headSize
			ctx := context[off:(off + headSize)]

			linear(contextQ, ctx, a.WContextQ, a.BContextQ)
			gq := gate(a.GateQContext, contextQ, a.GateQQuery, q[off:(off+headSize)])
			interpolate(cq[off:(off+headSize)], q[off:(off+headSize)], contextQ, gq)

			linear(contextK, ctx, a.WContextK, a.BContextK)
			gk := gate(a.GateKContext, contextK, a.GateKKey, k[off:(off+headSize)])
			interpolate(ck[off:(off+headSize)], k[off:(off+headSize)], contextK, gk)
		}
	}

	out := make([]float32, batch*seqLen*hidden)
	att := make([]float32, seqLen)
	scale := float32(math.Sqrt(float64(headSize)))
	for b := 0; b < batch; b++ {
		mask := attentionMask[(b * seqLen):((b + 1) * seqLen)]
		for h := 0; h < a.NumHeads; h++ {
			for i := 0; i < seqLen; i++ {
				qi := cq[((b*seqLen+i)*hidden + h*headSize):((b*seqLen+i)*hidden + (h+1)*headSize)]
				for j := 0; j < seqLen; j++ {
					kj := ck[((b*seqLen+j)*hidden + h*headSize):((b*seqLen+j)*hidden + (h+1)*headSize)]
					att[j] = nn.Dot(qi, kj)/scale + mask[j]
				}

				// normalize scores to probabilities over key positions;
				// dropping entire tokens to attend to, as in the original transformer
				nn.SoftMax(att)
				dropout(att, a.DropoutProb, rng)

				o := out[((b*seqLen+i)*hidden + h*headSize):((b*seqLen+i)*hidden + (h+1)*headSize)]
				for j := 0; j < seqLen; j++ {
					aij := att[j]
					vj := v[((b*seqLen+j)*hidden + h*headSize):((b*seqLen+j)*hidden + (h+1)*headSize)]
					for d := 0; d < headSize; d++ {
						o[d] += aij * vj[d]
					}
				}
			}
		}
	}
	return out
}
