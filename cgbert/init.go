package cgbert

import "math/rand"

// gateInitStd keeps the freshly added gate layers close to invisible at the
// start of fine-tuning: with near-zero gate weights the gates sit around 0.5
// and drift away only as training picks up the context signal.
const gateInitStd = 1e-2

func normalInit(x []float32, std float64, rng *rand.Rand) {
	for i := range x {
		x[i] = float32(rng.NormFloat64() * std)
	}
}

func zeroInit(x []float32) {
	for i := range x {
		x[i] = 0
	}
}

func onesInit(x []float32) {
	for i := range x {
		x[i] = 1
	}
}

// InitWeights samples fresh parameters: embedding and dense weights from
// N(0, initializer_range), biases zero, layer norm scale one and shift zero.
// The gate weight vectors use the small-variance N(0, 1e-2) scheme.
// The context update transform uses the standard initializer; treat its
// scheme as tunable.
func (m *Model) InitWeights(rng *rand.Rand) {
	std := float64(m.Config.InitializerRange)

	normalInit(m.Embeddings.WordEmbeddings, std, rng)
	normalInit(m.Embeddings.PositionEmbeddings, std, rng)
	normalInit(m.Embeddings.TokenTypeEmbeddings, std, rng)
	onesInit(m.Embeddings.Gamma)
	zeroInit(m.Embeddings.Beta)

	normalInit(m.ContextEmbeddings.Table, std, rng)

	for i := range m.Encoder.Layers {
		l := &m.Encoder.Layers[i]

		normalInit(l.ContextUpdate.W, std, rng)
		zeroInit(l.ContextUpdate.B)

		s := &l.Attention.Self
		normalInit(s.WQ, std, rng)
		zeroInit(s.BQ)
		normalInit(s.WK, std, rng)
		zeroInit(s.BK)
		normalInit(s.WV, std, rng)
		zeroInit(s.BV)
		normalInit(s.WContextQ, std, rng)
		zeroInit(s.BContextQ)
		normalInit(s.WContextK, std, rng)
		zeroInit(s.BContextK)
		normalInit(s.GateQContext, gateInitStd, rng)
		normalInit(s.GateQQuery, gateInitStd, rng)
		normalInit(s.GateKContext, gateInitStd, rng)
		normalInit(s.GateKKey, gateInitStd, rng)

		normalInit(l.Attention.Output.W, std, rng)
		zeroInit(l.Attention.Output.B)
		onesInit(l.Attention.Output.Gamma)
		zeroInit(l.Attention.Output.Beta)

		normalInit(l.Intermediate.W, std, rng)
		zeroInit(l.Intermediate.B)

		normalInit(l.Output.W, std, rng)
		zeroInit(l.Output.B)
		onesInit(l.Output.Gamma)
		zeroInit(l.Output.Beta)
	}

	normalInit(m.Pooler.W, std, rng)
	zeroInit(m.Pooler.B)
}

// InitWeights initializes the encoder and the classification head.
func (c *Classifier) InitWeights(rng *rand.Rand) {
	c.Model.InitWeights(rng)
	normalInit(c.W, float64(c.Model.Config.InitializerRange), rng)
	zeroInit(c.B)
}
