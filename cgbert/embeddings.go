package cgbert

import (
	"fmt"
	"math/rand"

	"github.com/nikolaydubina/cgbert.go/nn"
)

// Embeddings maps token ids, positions and segment ids to the initial hidden state.
// The three lookups are summed, layer-normalized, and regularized with dropout.
type Embeddings struct {
	WordEmbeddings      []float32 // (vocab_size, hidden)
	PositionEmbeddings  []float32 // (max_position_embeddings, hidden)
	TokenTypeEmbeddings []float32 // (type_vocab_size, hidden)

	Gamma []float32 // (hidden,) layer norm scale
	Beta  []float32 // (hidden,) layer norm shift

	VocabSize     int
	MaxPositions  int
	TypeVocabSize int
	Hidden        int
	Eps           float32
	DropoutProb   float32
}

func newEmbeddings(config Config) Embeddings {
	e := Embeddings{
		WordEmbeddings:      make([]float32, config.VocabSize*config.HiddenSize),
		PositionEmbeddings:  make([]float32, config.MaxPositionEmbeddings*config.HiddenSize),
		TokenTypeEmbeddings: make([]float32, config.TypeVocabSize*config.HiddenSize),
		Gamma:               make([]float32, config.HiddenSize),
		Beta:                make([]float32, config.HiddenSize),
		VocabSize:           config.VocabSize,
		MaxPositions:        config.MaxPositionEmbeddings,
		TypeVocabSize:       config.TypeVocabSize,
		Hidden:              config.HiddenSize,
		Eps:                 config.LayerNormEps,
		DropoutProb:         config.HiddenDropoutProb,
	}
	for i := range e.Gamma {
		e.Gamma[i] = 1
	}
	return e
}

// Forward returns the initial hidden state (batch, seq_len, hidden).
// tokenTypeIDs may be nil, which means segment zero everywhere.
// Position ids are the 0-based index within the sequence, shared across the batch.
func (e *Embeddings) Forward(inputIDs, tokenTypeIDs []int, batch, seqLen int, rng *rand.Rand) ([]float32, error) {
	if seqLen > e.MaxPositions {
		return nil, fmt.Errorf("embeddings: seq_len %d exceeds max position embeddings %d", seqLen, e.MaxPositions)
	}
	hidden := make([]float32, batch*seqLen*e.Hidden)
	for b := 0; b < batch; b++ {
		for s := 0; s < seqLen; s++ {
			token := inputIDs[b*seqLen+s]
			if token < 0 || token >= e.VocabSize {
				return nil, fmt.Errorf("embeddings: token id %d out of range [0, %d)", token, e.VocabSize)
			}
			tokenType := 0
			if tokenTypeIDs != nil {
				tokenType = tokenTypeIDs[b*seqLen+s]
			}
			if tokenType < 0 || tokenType >= e.TypeVocabSize {
				return nil, fmt.Errorf("embeddings: token type id %d out of range [0, %d)", tokenType, e.TypeVocabSize)
			}

			x := hidden[((b*seqLen + s) * e.Hidden):((b*seqLen + s + 1) * e.Hidden)]
			copy(x, e.WordEmbeddings[(token*e.Hidden):((token+1)*e.Hidden)])
			nn.Acc(x, e.PositionEmbeddings[(s*e.Hidden):((s+1)*e.Hidden)])
			nn.Acc(x, e.TokenTypeEmbeddings[(tokenType*e.Hidden):((tokenType+1)*e.Hidden)])
			nn.LayerNorm(x, x, e.Gamma, e.Beta, e.Eps)
		}
	}
	dropout(hidden, e.DropoutProb, rng)
	return hidden, nil
}

// ContextEmbeddings is the context state source: it maps one small discrete
// context id per example to an embedding vector and broadcasts it across all
// sequence positions, so the result matches the hidden state's shape.
type ContextEmbeddings struct {
	Table []float32 // (context_vocab_size, hidden)

	ContextVocabSize int
	Hidden           int
}

func newContextEmbeddings(config Config) ContextEmbeddings {
	return ContextEmbeddings{
		Table:            make([]float32, config.ContextVocabSize*config.HiddenSize),
		ContextVocabSize: config.ContextVocabSize,
		Hidden:           config.HiddenSize,
	}
}

// Forward returns the initial context state (batch, seq_len, hidden),
// identical at every sequence position of an example.
func (e *ContextEmbeddings) Forward(contextIDs []int, batch, seqLen int) ([]float32, error) {
	context := make([]float32, batch*seqLen*e.Hidden)
	for b := 0; b < batch; b++ {
		id := contextIDs[b]
		if id < 0 || id >= e.ContextVocabSize {
			return nil, fmt.Errorf("context embeddings: context id %d out of range [0, %d)", id, e.ContextVocabSize)
		}
		row := e.Table[(id * e.Hidden):((id + 1) * e.Hidden)]
		for s := 0; s < seqLen; s++ {
			copy(context[((b*seqLen+s)*e.Hidden):((b*seqLen+s+1)*e.Hidden)], row)
		}
	}
	return context, nil
}
