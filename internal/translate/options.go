package translate

import "fmt"

// Options describes how one request is decoded. An Options value is passed
// by value and never mutated by the pool, so a single value can be shared
// across workers executing concurrently on the same batch.
type Options struct {
	// BeamSize is the beam search width; 1 means greedy decoding.
	BeamSize int
	// NumHypotheses is the number of ranked outputs per input, at most BeamSize.
	NumHypotheses int
	// LengthPenalty is the exponent applied to length normalization of beam scores.
	LengthPenalty float64
	// MaxDecodingLength and MinDecodingLength bound the output length in tokens.
	MaxDecodingLength int
	MinDecodingLength int
	// UseVMap restricts the output vocabulary using a precomputed map. The
	// flag is opaque to the pool and interpreted by the engine.
	UseVMap bool
	// ReturnAttention requests per-step source attention weights.
	ReturnAttention bool
	// WithScores annotates textual output lines with the hypothesis score.
	// File mode only; ignored by Submit.
	WithScores bool
}

// DefaultOptions returns the decoding defaults of the translator surface:
// beam 4, one hypothesis, length penalty 0.6, output length in [1, 250].
func DefaultOptions() Options {
	return Options{
		BeamSize:          4,
		NumHypotheses:     1,
		LengthPenalty:     0.6,
		MaxDecodingLength: 250,
		MinDecodingLength: 1,
	}
}

// Validate checks the Options invariants. Violations are reported as
// InvalidArgumentError before any worker is touched.
func (o Options) Validate() error {
	if o.BeamSize < 1 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("beam_size %d (must be positive)", o.BeamSize)}
	}
	if o.NumHypotheses < 1 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("num_hypotheses %d (must be positive)", o.NumHypotheses)}
	}
	if o.NumHypotheses > o.BeamSize {
		return &InvalidArgumentError{Reason: fmt.Sprintf("num_hypotheses %d (must be <= beam_size %d)", o.NumHypotheses, o.BeamSize)}
	}
	if o.MinDecodingLength < 0 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("min_decoding_length %d (must be non-negative)", o.MinDecodingLength)}
	}
	if o.MaxDecodingLength < 0 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("max_decoding_length %d (must be non-negative)", o.MaxDecodingLength)}
	}
	if o.MinDecodingLength > o.MaxDecodingLength {
		return &InvalidArgumentError{Reason: fmt.Sprintf("min_decoding_length %d (must be <= max_decoding_length %d)", o.MinDecodingLength, o.MaxDecodingLength)}
	}
	return nil
}
