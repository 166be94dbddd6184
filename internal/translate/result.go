package translate

// Hypothesis is one ranked translation of one input record.
type Hypothesis struct {
	Tokens []string
	Score  float64
	// Attention holds one row per output step and one column per input
	// position. It is nil unless the originating Options requested it;
	// a present-but-empty grid is non-nil.
	Attention [][]float32
}

// Result holds the hypotheses for one input record, ordered by descending
// score. Its length equals the NumHypotheses of the originating Options.
type Result struct {
	Hypotheses []Hypothesis
}
