package cgbert

// PaddingMask builds a (batch, seq_len) mask from per-example valid lengths:
// 1 for valid positions, 0 for padding.
func PaddingMask(seqLens []int, seqLen int) []float32 {
	mask := make([]float32, len(seqLens)*seqLen)
	for b, validLen := range seqLens {
		for s := 0; s < validLen && s < seqLen; s++ {
			mask[b*seqLen+s] = 1
		}
	}
	return mask
}

// ExtendedAttentionMask converts a (batch, seq_len) 1/0 mask into the additive
// log-space mask added to raw attention scores: 0 for positions to attend,
// -10000 for masked positions, which suppresses them to near-zero probability
// after softmax. Computed once and shared read-only across all layers.
func ExtendedAttentionMask(mask []float32) []float32 {
	extended := make([]float32, len(mask))
	for i, m := range mask {
		extended[i] = (1 - m) * -10000
	}
	return extended
}
