package cgbert

import (
	"encoding/json"
	"fmt"
	"io"
)

// Config holds the hyperparameters of a context-gated BERT encoder.
// It is created once at model construction and never mutated afterwards.
type Config struct {
	VocabSize                 int     `json:"vocab_size"`
	HiddenSize                int     `json:"hidden_size"`
	NumHiddenLayers           int     `json:"num_hidden_layers"`
	NumAttentionHeads         int     `json:"num_attention_heads"`
	IntermediateSize          int     `json:"intermediate_size"`
	HiddenAct                 string  `json:"hidden_act"`
	HiddenDropoutProb         float32 `json:"hidden_dropout_prob"`
	AttentionProbsDropoutProb float32 `json:"attention_probs_dropout_prob"`
	MaxPositionEmbeddings     int     `json:"max_position_embeddings"`
	TypeVocabSize             int     `json:"type_vocab_size"`
	ContextVocabSize          int     `json:"context_vocab_size"`
	InitializerRange          float32 `json:"initializer_range"`
	LayerNormEps              float32 `json:"layer_norm_eps"`
}

// DefaultConfig is a BERT-base sized configuration.
func DefaultConfig() Config {
	return Config{
		VocabSize:                 32000,
		HiddenSize:                768,
		NumHiddenLayers:           12,
		NumAttentionHeads:         12,
		IntermediateSize:          3072,
		HiddenAct:                 "gelu",
		HiddenDropoutProb:         0.1,
		AttentionProbsDropoutProb: 0.1,
		MaxPositionEmbeddings:     512,
		TypeVocabSize:             16,
		ContextVocabSize:          8,
		InitializerRange:          0.02,
		LayerNormEps:              1e-12,
	}
}

// NewConfigFromJSON reads a Config from a JSON document.
// Fields absent from the document keep the DefaultConfig values.
func NewConfigFromJSON(r io.Reader) (Config, error) {
	config := DefaultConfig()
	if err := json.NewDecoder(r).Decode(&config); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.HiddenSize <= 0 || c.NumHiddenLayers <= 0 || c.NumAttentionHeads <= 0 || c.IntermediateSize <= 0 {
		return fmt.Errorf("config: sizes must be positive: %+v", c)
	}
	if c.VocabSize <= 0 || c.TypeVocabSize <= 0 || c.ContextVocabSize <= 0 || c.MaxPositionEmbeddings <= 0 {
		return fmt.Errorf("config: vocabulary sizes must be positive: %+v", c)
	}
	if c.HiddenSize%c.NumAttentionHeads != 0 {
		return fmt.Errorf("config: hidden size (%d) is not a multiple of the number of attention heads (%d)", c.HiddenSize, c.NumAttentionHeads)
	}
	if _, err := activationFor(c.HiddenAct); err != nil {
		return err
	}
	return nil
}

// HeadSize is the per-head slice of the hidden dimension.
func (c Config) HeadSize() int { return c.HiddenSize / c.NumAttentionHeads }

// JSONString serializes the config to an indented JSON document.
func (c Config) JSONString() (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
