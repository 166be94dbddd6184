// Package flightsink publishes finished translations to a Longbow server
// over Arrow Flight, so downstream quality analysis can query them next to
// the embedding store.
package flightsink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/23skdu/longbow-fletcher/internal/translate"
)

const defaultTimeout = 30 * time.Second

// Record is one hypothesis destined for the sink.
type Record struct {
	ID    string
	Score float64
	Text  string
}

var schema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "text", Type: arrow.BinaryTypes.String},
}, nil)

// Sink is a Flight client bound to one Longbow data endpoint. It implements
// translate.ResultSink so the file streamer can feed it directly.
type Sink struct {
	addr    string
	timeout time.Duration
	client  flight.Client
}

// New returns an unconnected sink for the given host:port.
func New(addr string) *Sink {
	return &Sink{addr: addr, timeout: defaultTimeout}
}

// Connect dials the Flight endpoint.
func (s *Sink) Connect(ctx context.Context) error {
	client, err := flight.NewClientWithMiddlewareCtx(ctx, s.addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("flightsink: dial %s: %w", s.addr, err)
	}
	s.client = client
	return nil
}

// Close disconnects from the Flight endpoint.
func (s *Sink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Consume implements translate.ResultSink: it publishes every hypothesis of
// the batch, with IDs of the form "<record>#<rank>".
func (s *Sink) Consume(firstRecord int, results []translate.Result) error {
	recs := make([]Record, 0, len(results))
	for i, r := range results {
		for rank, h := range r.Hypotheses {
			recs = append(recs, Record{
				ID:    fmt.Sprintf("%d#%d", firstRecord+i, rank),
				Score: h.Score,
				Text:  strings.Join(h.Tokens, " "),
			})
		}
	}
	return s.Publish(context.Background(), recs)
}

// Publish sends one Arrow record batch to the translations path.
func (s *Sink) Publish(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	if s.client == nil {
		return fmt.Errorf("flightsink: not connected, call Connect first")
	}

	rec := buildRecord(memory.DefaultAllocator, recs)
	defer rec.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream, err := s.client.DoPut(ctx)
	if err != nil {
		return fmt.Errorf("flightsink: open DoPut stream: %w", err)
	}

	wr := flight.NewRecordWriter(stream, ipc.WithSchema(schema))
	wr.SetFlightDescriptor(&flight.FlightDescriptor{
		Type: flight.DescriptorPATH,
		Path: []string{"translations"},
	})

	if err := wr.Write(rec); err != nil {
		wr.Close()
		return fmt.Errorf("flightsink: write record: %w", err)
	}
	if err := wr.Close(); err != nil {
		return fmt.Errorf("flightsink: close writer: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("flightsink: close stream: %w", err)
	}
	return nil
}

func buildRecord(mem memory.Allocator, recs []Record) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	ids := b.Field(0).(*array.StringBuilder)
	scores := b.Field(1).(*array.Float64Builder)
	texts := b.Field(2).(*array.StringBuilder)
	for _, r := range recs {
		ids.Append(r.ID)
		scores.Append(r.Score)
		texts.Append(r.Text)
	}
	return b.NewRecord()
}
