package cgbert

import (
	"fmt"
	"math"
	"math/rand"
)

// Classifier is a sequence classification head on top of the encoder:
// logits = W @ dropout(pooled) + b.
type Classifier struct {
	Model *Model

	W []float32 // (num_labels, hidden)
	B []float32 // (num_labels,)

	NumLabels   int
	DropoutProb float32
}

func NewClassifier(config Config, numLabels int) (*Classifier, error) {
	if numLabels <= 0 {
		return nil, fmt.Errorf("classifier: num labels must be positive, got %d", numLabels)
	}
	model, err := NewModel(config)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		Model:       model,
		W:           make([]float32, numLabels*config.HiddenSize),
		B:           make([]float32, numLabels),
		NumLabels:   numLabels,
		DropoutProb: config.HiddenDropoutProb,
	}, nil
}

// Forward returns logits (batch, num_labels).
func (c *Classifier) Forward(inputIDs, tokenTypeIDs, contextIDs []int, attentionMask []float32, batch, seqLen int, rng *rand.Rand) ([]float32, error) {
	pooled, err := c.Model.Forward(inputIDs, tokenTypeIDs, contextIDs, attentionMask, batch, seqLen, rng)
	if err != nil {
		return nil, err
	}
	dropout(pooled, c.DropoutProb, rng)

	hidden := c.Model.Config.HiddenSize
	logits := make([]float32, batch*c.NumLabels)
	for b := 0; b < batch; b++ {
		linear(logits[(b*c.NumLabels):((b+1)*c.NumLabels)], pooled[(b*hidden):((b+1)*hidden)], c.W, c.B)
	}
	return logits, nil
}

// CrossEntropyLoss is the mean negative log-likelihood of labels under the
// softmax of logits (batch, num_labels).
func CrossEntropyLoss(logits []float32, labels []int, batch, numLabels int) (float32, error) {
	if len(logits) != batch*numLabels || len(labels) != batch {
		return 0, fmt.Errorf("cross entropy: got %d logits and %d labels for batch %d x %d labels", len(logits), len(labels), batch, numLabels)
	}
	var total float64
	for b := 0; b < batch; b++ {
		if labels[b] < 0 || labels[b] >= numLabels {
			return 0, fmt.Errorf("cross entropy: label %d out of range [0, %d)", labels[b], numLabels)
		}
		row := logits[(b * numLabels):((b + 1) * numLabels)]

		// log-softmax with max subtracted for numerical stability
		max := row[0]
		for _, v := range row {
			if v > max {
				max = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - max))
		}
		total += math.Log(sumExp) - float64(row[labels[b]]-max)
	}
	return float32(total / float64(batch)), nil
}
