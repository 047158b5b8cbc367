package cgbert

import "github.com/nikolaydubina/cgbert.go/nn"

// Pooler reduces the final hidden state to one vector per example by taking
// the first token's hidden state and applying a dense transform with tanh.
type Pooler struct {
	W []float32 // (hidden, hidden)
	B []float32 // (hidden,)

	Hidden int
}

func newPooler(config Config) Pooler {
	return Pooler{
		W:      make([]float32, config.HiddenSize*config.HiddenSize),
		B:      make([]float32, config.HiddenSize),
		Hidden: config.HiddenSize,
	}
}

// Forward returns the pooled representation (batch, hidden).
// attentionMask is accepted for interface stability but unused: first-token
// pooling reads position 0 regardless of masking. An attention-weighted
// pooling over all positions would consume it.
func (p *Pooler) Forward(hiddenStates, attentionMask []float32, batch, seqLen int) []float32 {
	pooled := make([]float32, batch*p.Hidden)
	for b := 0; b < batch; b++ {
		first := hiddenStates[(b * seqLen * p.Hidden):((b*seqLen)*p.Hidden + p.Hidden)]
		out := pooled[(b * p.Hidden):((b + 1) * p.Hidden)]
		linear(out, first, p.W, p.B)
		for i := range out {
			out[i] = nn.Tanh(out[i])
		}
	}
	return pooled
}
