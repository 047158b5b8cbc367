package cgbert

import (
	"fmt"
	"math/rand"
)

// Model is the context-gated BERT encoder: embeddings, a context state source,
// a stack of context-gated layers, and first-token pooling.
//
// Aside from its learned parameters the model is stateless: every Forward call
// owns its own hidden/context buffers, so independent calls may run concurrently.
// A nil rng disables dropout and makes the forward pass deterministic.
type Model struct {
	Config Config

	Embeddings        Embeddings
	ContextEmbeddings ContextEmbeddings
	Encoder           Encoder
	Pooler            Pooler
}

// NewModel constructs a model with zero-valued parameters (layer norm scales
// at one). Populate the weights with InitWeights or ReadCheckpoint.
func NewModel(config Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Model{
		Config:            config,
		Embeddings:        newEmbeddings(config),
		ContextEmbeddings: newContextEmbeddings(config),
		Encoder:           newEncoder(config),
		Pooler:            newPooler(config),
	}, nil
}

// Forward runs the encoder and returns the pooled representation (batch, hidden).
//
//   - inputIDs: (batch, seq_len) token ids in [0, vocab_size)
//   - tokenTypeIDs: (batch, seq_len) segment ids, nil for all-zero
//   - contextIDs: (batch,) context ids in [0, context_vocab_size)
//   - attentionMask: (batch, seq_len) 1/0 padding mask, nil for all-ones
//   - rng: dropout randomness source, nil for inference
func (m *Model) Forward(inputIDs, tokenTypeIDs, contextIDs []int, attentionMask []float32, batch, seqLen int, rng *rand.Rand) ([]float32, error) {
	if len(inputIDs) != batch*seqLen {
		return nil, fmt.Errorf("model: input ids length %d does not match batch %d x seq_len %d", len(inputIDs), batch, seqLen)
	}
	if tokenTypeIDs != nil && len(tokenTypeIDs) != batch*seqLen {
		return nil, fmt.Errorf("model: token type ids length %d does not match batch %d x seq_len %d", len(tokenTypeIDs), batch, seqLen)
	}
	if len(contextIDs) != batch {
		return nil, fmt.Errorf("model: context ids length %d does not match batch %d", len(contextIDs), batch)
	}
	if attentionMask == nil {
		attentionMask = make([]float32, batch*seqLen)
		for i := range attentionMask {
			attentionMask[i] = 1
		}
	}
	if len(attentionMask) != batch*seqLen {
		return nil, fmt.Errorf("model: attention mask length %d does not match batch %d x seq_len %d", len(attentionMask), batch, seqLen)
	}

	extendedAttentionMask := ExtendedAttentionMask(attentionMask)

	hiddenStates, err := m.Embeddings.Forward(inputIDs, tokenTypeIDs, batch, seqLen, rng)
	if err != nil {
		return nil, err
	}
	context, err := m.ContextEmbeddings.Forward(contextIDs, batch, seqLen)
	if err != nil {
		return nil, err
	}

	sequenceOutput := m.Encoder.Forward(hiddenStates, extendedAttentionMask, context, batch, seqLen, rng)
	return m.Pooler.Forward(sequenceOutput, attentionMask, batch, seqLen), nil
}
