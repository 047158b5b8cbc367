package cgbert

import (
	"encoding/binary"
	"fmt"
	"io"
)

var Endian = binary.LittleEndian

// tensors lists every parameter tensor in the fixed checkpoint order:
// embeddings, context embedding table, then per layer the context update,
// attention (projections, context projections, gates), attention output,
// feed-forward, and finally the pooler. The checkpoint stream is raw
// little-endian float32 values in exactly this order.
func (m *Model) tensors() [][]float32 {
	t := [][]float32{
		m.Embeddings.WordEmbeddings,
		m.Embeddings.PositionEmbeddings,
		m.Embeddings.TokenTypeEmbeddings,
		m.Embeddings.Gamma,
		m.Embeddings.Beta,
		m.ContextEmbeddings.Table,
	}
	for i := range m.Encoder.Layers {
		l := &m.Encoder.Layers[i]
		t = append(t,
			l.ContextUpdate.W,
			l.ContextUpdate.B,
			l.Attention.Self.WQ,
			l.Attention.Self.BQ,
			l.Attention.Self.WK,
			l.Attention.Self.BK,
			l.Attention.Self.WV,
			l.Attention.Self.BV,
			l.Attention.Self.WContextQ,
			l.Attention.Self.BContextQ,
			l.Attention.Self.WContextK,
			l.Attention.Self.BContextK,
			l.Attention.Self.GateQContext,
			l.Attention.Self.GateQQuery,
			l.Attention.Self.GateKContext,
			l.Attention.Self.GateKKey,
			l.Attention.Output.W,
			l.Attention.Output.B,
			l.Attention.Output.Gamma,
			l.Attention.Output.Beta,
			l.Intermediate.W,
			l.Intermediate.B,
			l.Output.W,
			l.Output.B,
			l.Output.Gamma,
			l.Output.Beta,
		)
	}
	t = append(t, m.Pooler.W, m.Pooler.B)
	return t
}

// ReadCheckpoint populates all parameter tensors from the checkpoint stream.
// Only shapes are assumed; the values may come from any training run.
func (m *Model) ReadCheckpoint(r io.Reader) error {
	for i, t := range m.tensors() {
		if err := binary.Read(r, Endian, t); err != nil {
			return fmt.Errorf("checkpoint: reading tensor %d: %w", i, err)
		}
	}
	return nil
}

// WriteCheckpoint writes all parameter tensors in checkpoint order.
func (m *Model) WriteCheckpoint(w io.Writer) error {
	for i, t := range m.tensors() {
		if err := binary.Write(w, Endian, t); err != nil {
			return fmt.Errorf("checkpoint: writing tensor %d: %w", i, err)
		}
	}
	return nil
}

// ReadCheckpoint reads the encoder tensors followed by the classifier head.
func (c *Classifier) ReadCheckpoint(r io.Reader) error {
	if err := c.Model.ReadCheckpoint(r); err != nil {
		return err
	}
	if err := binary.Read(r, Endian, c.W); err != nil {
		return fmt.Errorf("checkpoint: reading classifier weights: %w", err)
	}
	if err := binary.Read(r, Endian, c.B); err != nil {
		return fmt.Errorf("checkpoint: reading classifier bias: %w", err)
	}
	return nil
}

// WriteCheckpoint writes the encoder tensors followed by the classifier head.
func (c *Classifier) WriteCheckpoint(w io.Writer) error {
	if err := c.Model.WriteCheckpoint(w); err != nil {
		return err
	}
	if err := binary.Write(w, Endian, c.W); err != nil {
		return fmt.Errorf("checkpoint: writing classifier weights: %w", err)
	}
	if err := binary.Write(w, Endian, c.B); err != nil {
		return fmt.Errorf("checkpoint: writing classifier bias: %w", err)
	}
	return nil
}
