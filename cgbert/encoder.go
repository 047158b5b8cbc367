package cgbert

import "math/rand"

// Encoder stacks N independently-constructed layers. The context state is
// threaded through the stack: each layer refreshes it from the previous
// hidden state before its attention block consumes it.
type Encoder struct {
	Layers []Layer
}

func newEncoder(config Config) Encoder {
	layers := make([]Layer, config.NumHiddenLayers)
	for i := range layers {
		layers[i] = newLayer(config)
	}
	return Encoder{Layers: layers}
}

// Forward runs the layer stack strictly sequentially and returns the final
// hidden state (batch, seq_len, hidden). Intermediate layer outputs are discarded.
func (e *Encoder) Forward(hiddenStates, attentionMask, context []float32, batch, seqLen int, rng *rand.Rand) []float32 {
	for i := range e.Layers {
		hiddenStates, context = e.Layers[i].Forward(hiddenStates, attentionMask, context, batch, seqLen, rng)
	}
	return hiddenStates
}
