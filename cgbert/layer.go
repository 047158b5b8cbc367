package cgbert

import (
	"math/rand"

	"github.com/nikolaydubina/cgbert.go/nn"
)

// SelfOutput wraps the attention output with a dense projection, dropout,
// a residual connection to the attention input, and layer normalization.
type SelfOutput struct {
	W []float32 // (hidden, hidden)
	B []float32 // (hidden,)

	Gamma []float32 // (hidden,)
	Beta  []float32 // (hidden,)

	Hidden      int
	Eps         float32
	DropoutProb float32
}

func newSelfOutput(config Config) SelfOutput {
	o := SelfOutput{
		W:           make([]float32, config.HiddenSize*config.HiddenSize),
		B:           make([]float32, config.HiddenSize),
		Gamma:       make([]float32, config.HiddenSize),
		Beta:        make([]float32, config.HiddenSize),
		Hidden:      config.HiddenSize,
		Eps:         config.LayerNormEps,
		DropoutProb: config.HiddenDropoutProb,
	}
	for i := range o.Gamma {
		o.Gamma[i] = 1
	}
	return o
}

// Forward: LayerNorm(Dropout(W@x + b) + input), per position.
func (o *SelfOutput) Forward(hiddenStates, input []float32, batch, seqLen int, rng *rand.Rand) []float32 {
	out := make([]float32, batch*seqLen*o.Hidden)
	for p := 0; p < batch*seqLen; p++ {
		x := out[(p * o.Hidden):((p + 1) * o.Hidden)]
		linear(x, hiddenStates[(p*o.Hidden):((p+1)*o.Hidden)], o.W, o.B)
		dropout(x, o.DropoutProb, rng)
		nn.Acc(x, input[(p*o.Hidden):((p+1)*o.Hidden)])
		nn.LayerNorm(x, x, o.Gamma, o.Beta, o.Eps)
	}
	return out
}

// Attention is context-gated self-attention followed by its output block.
type Attention struct {
	Self   SelfAttention
	Output SelfOutput
}

func newAttention(config Config) Attention {
	return Attention{
		Self:   newSelfAttention(config),
		Output: newSelfOutput(config),
	}
}

func (a *Attention) Forward(input, attentionMask, context []float32, batch, seqLen int, rng *rand.Rand) []float32 {
	selfOutput := a.Self.Forward(input, attentionMask, context, batch, seqLen, rng)
	return a.Output.Forward(selfOutput, input, batch, seqLen, rng)
}

// Intermediate is the position-wise feed-forward expansion with a nonlinearity.
type Intermediate struct {
	W []float32 // (intermediate, hidden)
	B []float32 // (intermediate,)

	Hidden       int
	Intermediate int
	Act          func(float32) float32
}

func newIntermediate(config Config) Intermediate {
	act, _ := activationFor(config.HiddenAct) // config is validated at model construction
	return Intermediate{
		W:            make([]float32, config.IntermediateSize*config.HiddenSize),
		B:            make([]float32, config.IntermediateSize),
		Hidden:       config.HiddenSize,
		Intermediate: config.IntermediateSize,
		Act:          act,
	}
}

func (im *Intermediate) Forward(hiddenStates []float32, batch, seqLen int) []float32 {
	out := make([]float32, batch*seqLen*im.Intermediate)
	for p := 0; p < batch*seqLen; p++ {
		x := out[(p * im.Intermediate):((p + 1) * im.Intermediate)]
		linear(x, hiddenStates[(p*im.Hidden):((p+1)*im.Hidden)], im.W, im.B)
		for i := range x {
			x[i] = im.Act(x[i])
		}
	}
	return out
}

// Output projects the intermediate representation back to the hidden size,
// with dropout, a residual connection to the attention output, and layer norm.
type Output struct {
	W []float32 // (hidden, intermediate)
	B []float32 // (hidden,)

	Gamma []float32 // (hidden,)
	Beta  []float32 // (hidden,)

	Hidden       int
	Intermediate int
	Eps          float32
	DropoutProb  float32
}

func newOutput(config Config) Output {
	o := Output{
		W:            make([]float32, config.HiddenSize*config.IntermediateSize),
		B:            make([]float32, config.HiddenSize),
		Gamma:        make([]float32, config.HiddenSize),
		Beta:         make([]float32, config.HiddenSize),
		Hidden:       config.HiddenSize,
		Intermediate: config.IntermediateSize,
		Eps:          config.LayerNormEps,
		DropoutProb:  config.HiddenDropoutProb,
	}
	for i := range o.Gamma {
		o.Gamma[i] = 1
	}
	return o
}

func (o *Output) Forward(intermediate, input []float32, batch, seqLen int, rng *rand.Rand) []float32 {
	out := make([]float32, batch*seqLen*o.Hidden)
	for p := 0; p < batch*seqLen; p++ {
		x := out[(p * o.Hidden):((p + 1) * o.Hidden)]
		linear(x, intermediate[(p*o.Intermediate):((p+1)*o.Intermediate)], o.W, o.B)
		dropout(x, o.DropoutProb, rng)
		nn.Acc(x, input[(p*o.Hidden):((p+1)*o.Hidden)])
		nn.LayerNorm(x, x, o.Gamma, o.Beta, o.Eps)
	}
	return out
}

// ContextUpdate refreshes the context state from the previous layer's hidden state:
// new_context = W @ concat(context, hidden) + b + context. Each layer owns its own.
type ContextUpdate struct {
	W []float32 // (hidden, 2*hidden)
	B []float32 // (hidden,)

	Hidden int
}

func newContextUpdate(config Config) ContextUpdate {
	return ContextUpdate{
		W:      make([]float32, config.HiddenSize*2*config.HiddenSize),
		B:      make([]float32, config.HiddenSize),
		Hidden: config.HiddenSize,
	}
}

// Forward returns the updated context state (batch, seq_len, hidden).
// Inputs are not modified.
func (u *ContextUpdate) Forward(context, hiddenStates []float32, batch, seqLen int) []float32 {
	out := make([]float32, batch*seqLen*u.Hidden)
	cat := make([]float32, 2*u.Hidden)
	for p := 0; p < batch*seqLen; p++ {
		copy(cat[:u.Hidden], context[(p*u.Hidden):((p+1)*u.Hidden)])
		copy(cat[u.Hidden:], hiddenStates[(p*u.Hidden):((p+1)*u.Hidden)])
		x := out[(p * u.Hidden):((p + 1) * u.Hidden)]
		linear(x, cat, u.W, u.B)
		nn.Acc(x, context[(p*u.Hidden):((p+1)*u.Hidden)])
	}
	return out
}

// Layer is one encoder layer: context update, context-gated attention, feed-forward.
// Every layer carries an independent copy of all weights; nothing is shared.
type Layer struct {
	ContextUpdate ContextUpdate
	Attention     Attention
	Intermediate  Intermediate
	Output        Output
}

func newLayer(config Config) Layer {
	return Layer{
		ContextUpdate: newContextUpdate(config),
		Attention:     newAttention(config),
		Intermediate:  newIntermediate(config),
		Output:        newOutput(config),
	}
}

// Forward consumes the previous layer's hidden and context states and returns
// the new ones.
func (l *Layer) Forward(hiddenStates, attentionMask, context []float32, batch, seqLen int, rng *rand.Rand) (newHidden, newContext []float32) {
	newContext = l.ContextUpdate.Forward(context, hiddenStates, batch, seqLen)
	attentionOutput := l.Attention.Forward(hiddenStates, attentionMask, newContext, batch, seqLen, rng)
	intermediate := l.Intermediate.Forward(attentionOutput, batch, seqLen)
	newHidden = l.Output.Forward(intermediate, attentionOutput, batch, seqLen, rng)
	return newHidden, newContext
}
