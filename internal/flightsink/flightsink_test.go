package flightsink

import (
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-fletcher/internal/translate"
)

func TestBuildRecord(t *testing.T) {
	recs := []Record{
		{ID: "0#0", Score: -0.25, Text: "hallo welt"},
		{ID: "1#0", Score: -1.5, Text: "foo"},
	}

	rec := buildRecord(memory.NewGoAllocator(), recs)
	defer rec.Release()

	if rec.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", rec.NumRows())
	}
	if rec.NumCols() != 3 {
		t.Fatalf("expected 3 columns, got %d", rec.NumCols())
	}

	ids := rec.Column(0).(*array.String)
	scores := rec.Column(1).(*array.Float64)
	texts := rec.Column(2).(*array.String)

	if ids.Value(0) != "0#0" || ids.Value(1) != "1#0" {
		t.Errorf("unexpected ids: %v, %v", ids.Value(0), ids.Value(1))
	}
	if scores.Value(0) != -0.25 || scores.Value(1) != -1.5 {
		t.Errorf("unexpected scores: %v, %v", scores.Value(0), scores.Value(1))
	}
	if texts.Value(0) != "hallo welt" || texts.Value(1) != "foo" {
		t.Errorf("unexpected texts: %v, %v", texts.Value(0), texts.Value(1))
	}
}

func TestPublishNotConnected(t *testing.T) {
	s := New("localhost:3000")
	err := s.Publish(context.Background(), []Record{{ID: "0#0", Text: "x"}})
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("expected not-connected error, got %v", err)
	}
}

func TestPublishEmptyIsNoop(t *testing.T) {
	// Zero records never touch the connection, so an unconnected sink is fine.
	s := New("localhost:3000")
	if err := s.Publish(context.Background(), nil); err != nil {
		t.Fatalf("expected nil error for empty publish, got %v", err)
	}
}

func TestConsumeFlattensHypotheses(t *testing.T) {
	s := New("localhost:3000")

	results := []translate.Result{
		{Hypotheses: []translate.Hypothesis{
			{Tokens: []string{"a", "b"}, Score: -0.1},
			{Tokens: []string{"b", "a"}, Score: -0.2},
		}},
	}

	// Not connected: Consume must try to publish the flattened records and
	// surface the connection error rather than dropping them.
	err := s.Consume(7, results)
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("expected not-connected error, got %v", err)
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	s := New("localhost:3000")
	if err := s.Close(); err != nil {
		t.Fatalf("Close on unconnected sink: %v", err)
	}
}
