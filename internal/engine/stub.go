package engine

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/23skdu/longbow-fletcher/internal/translate"
)

// padToken fills hypotheses up to the minimum decoding length.
const padToken = "</s>"

// Stub is a deterministic, model-free backend used in tests and in builds
// without a native inference library. Its rank-r hypothesis is the source
// tokens rotated by r positions, clipped to the decoding length bounds, with
// scores strictly decreasing in rank.
type Stub struct {
	modelPath   string
	device      string
	deviceIndex int
	closed      atomic.Bool
}

// NewStub returns a stub engine pretending to be bound to the given device.
func NewStub(modelPath, device string, deviceIndex int) *Stub {
	return &Stub{modelPath: modelPath, device: device, deviceIndex: deviceIndex}
}

// Translate implements translate.Engine.
func (s *Stub) Translate(batch [][]string, opts translate.Options) ([]translate.Result, error) {
	if s.closed.Load() {
		return nil, errors.New("engine: translate on closed engine")
	}

	results := make([]translate.Result, len(batch))
	for i, source := range batch {
		hyps := make([]translate.Hypothesis, opts.NumHypotheses)
		for rank := range hyps {
			tokens := decode(source, rank, opts)
			hyp := translate.Hypothesis{
				Tokens: tokens,
				Score:  score(len(tokens), rank, opts.LengthPenalty),
			}
			if opts.ReturnAttention {
				hyp.Attention = diagonalAttention(len(tokens), len(source))
			}
			hyps[rank] = hyp
		}
		results[i] = translate.Result{Hypotheses: hyps}
	}
	return results, nil
}

// Close implements translate.Engine.
func (s *Stub) Close() error {
	s.closed.Store(true)
	return nil
}

func decode(source []string, rank int, opts translate.Options) []string {
	out := make([]string, 0, len(source))
	for i := range source {
		out = append(out, source[(i+rank)%len(source)])
	}
	if opts.MaxDecodingLength > 0 && len(out) > opts.MaxDecodingLength {
		out = out[:opts.MaxDecodingLength]
	}
	for len(out) < opts.MinDecodingLength {
		out = append(out, padToken)
	}
	return out
}

// score is strictly decreasing in rank so hypotheses come out ordered by
// descending score, matching the engine contract.
func score(length, rank int, lengthPenalty float64) float64 {
	norm := 1.0
	if length > 0 {
		norm = math.Pow(float64(length), lengthPenalty)
	}
	return (-0.1*float64(length) - float64(rank)) / norm
}

// diagonalAttention returns a steps x srcLen grid with each output step
// attending fully to the aligned source position. The grid is non-nil even
// when empty so presence stays distinguishable from absence.
func diagonalAttention(steps, srcLen int) [][]float32 {
	att := make([][]float32, steps)
	for i := range att {
		row := make([]float32, srcLen)
		if srcLen > 0 {
			col := i
			if col >= srcLen {
				col = srcLen - 1
			}
			row[col] = 1.0
		}
		att[i] = row
	}
	return att
}
