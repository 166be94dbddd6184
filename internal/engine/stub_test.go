package engine

import (
	"reflect"
	"testing"

	"github.com/23skdu/longbow-fletcher/internal/translate"
)

func stubOptions() translate.Options {
	return translate.Options{
		BeamSize:          4,
		NumHypotheses:     1,
		LengthPenalty:     0.6,
		MaxDecodingLength: 250,
		MinDecodingLength: 1,
	}
}

func TestStubTranslateShape(t *testing.T) {
	s := NewStub("model.bin", "cpu", 0)
	defer s.Close()

	batch := [][]string{{"hello", "world"}, {"foo"}}
	results, err := s.Translate(batch, stubOptions())
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if len(r.Hypotheses) != 1 {
			t.Errorf("result %d: expected 1 hypothesis, got %d", i, len(r.Hypotheses))
		}
	}
	// Rank 0 echoes the source.
	if !reflect.DeepEqual(results[0].Hypotheses[0].Tokens, []string{"hello", "world"}) {
		t.Errorf("unexpected rank-0 tokens: %v", results[0].Hypotheses[0].Tokens)
	}
}

func TestStubScoresDescending(t *testing.T) {
	s := NewStub("model.bin", "cpu", 0)
	defer s.Close()

	opts := stubOptions()
	opts.NumHypotheses = 4

	results, err := s.Translate([][]string{{"a", "b", "c", "d"}}, opts)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	hyps := results[0].Hypotheses
	if len(hyps) != 4 {
		t.Fatalf("expected 4 hypotheses, got %d", len(hyps))
	}
	for i := 1; i < len(hyps); i++ {
		if hyps[i].Score >= hyps[i-1].Score {
			t.Errorf("scores not strictly descending: %v then %v", hyps[i-1].Score, hyps[i].Score)
		}
	}
}

func TestStubDecodingBounds(t *testing.T) {
	s := NewStub("model.bin", "cpu", 0)
	defer s.Close()

	opts := stubOptions()
	opts.MaxDecodingLength = 2
	results, err := s.Translate([][]string{{"a", "b", "c", "d"}}, opts)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if n := len(results[0].Hypotheses[0].Tokens); n != 2 {
		t.Errorf("expected output clipped to 2 tokens, got %d", n)
	}

	opts = stubOptions()
	opts.MinDecodingLength = 3
	results, err = s.Translate([][]string{{"x"}}, opts)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	tokens := results[0].Hypotheses[0].Tokens
	if len(tokens) != 3 {
		t.Fatalf("expected output padded to 3 tokens, got %d", len(tokens))
	}
	if tokens[1] != padToken || tokens[2] != padToken {
		t.Errorf("expected padding tokens, got %v", tokens)
	}
}

func TestStubAttention(t *testing.T) {
	s := NewStub("model.bin", "cpu", 0)
	defer s.Close()

	opts := stubOptions()
	opts.ReturnAttention = true
	results, err := s.Translate([][]string{{"a", "b", "c"}}, opts)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	att := results[0].Hypotheses[0].Attention
	if att == nil {
		t.Fatal("expected attention grid")
	}
	if len(att) != 3 {
		t.Fatalf("expected 3 attention rows, got %d", len(att))
	}
	for i, row := range att {
		if len(row) != 3 {
			t.Errorf("row %d: expected 3 columns, got %d", i, len(row))
		}
		var sum float32
		for _, v := range row {
			sum += v
		}
		if sum != 1.0 {
			t.Errorf("row %d does not sum to 1: %v", i, sum)
		}
	}

	opts.ReturnAttention = false
	results, err = s.Translate([][]string{{"a"}}, opts)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if results[0].Hypotheses[0].Attention != nil {
		t.Error("expected nil attention when not requested")
	}
}

func TestStubEmptyRecord(t *testing.T) {
	s := NewStub("model.bin", "cpu", 0)
	defer s.Close()

	opts := stubOptions()
	opts.ReturnAttention = true
	results, err := s.Translate([][]string{{}}, opts)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	hyp := results[0].Hypotheses[0]
	// One pad token to honor the minimum length; attention present but with
	// zero-width rows.
	if len(hyp.Tokens) != 1 || hyp.Tokens[0] != padToken {
		t.Errorf("unexpected tokens for empty record: %v", hyp.Tokens)
	}
	if hyp.Attention == nil {
		t.Fatal("expected non-nil attention grid")
	}
	for i, row := range hyp.Attention {
		if len(row) != 0 {
			t.Errorf("row %d: expected zero columns, got %d", i, len(row))
		}
	}
}

func TestStubClosed(t *testing.T) {
	s := NewStub("model.bin", "cpu", 0)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Translate([][]string{{"a"}}, stubOptions()); err == nil {
		t.Error("expected error translating on closed engine")
	}
}
