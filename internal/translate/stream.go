package translate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/23skdu/longbow-fletcher/internal/metrics"
)

// maxLineBytes bounds a single input record. Tokenized sentences are short;
// this only guards against accidentally feeding a binary file.
const maxLineBytes = 4 * 1024 * 1024

// ResultSink receives each batch's results during file streaming, after they
// have been written to the output and strictly in input order. firstRecord is
// the zero-based index of the batch's first input record. A sink error fails
// the streaming operation the same way an inference error does.
type ResultSink interface {
	Consume(firstRecord int, results []Result) error
}

// streamFile reads whitespace-tokenized records from inputPath, submits them
// in batches of up to maxBatchSize and writes one line per hypothesis to
// outputPath in input order. An empty input produces an empty output with
// zero batches submitted.
func streamFile(p *Pool, inputPath, outputPath string, maxBatchSize int, opts Options, sinks []ResultSink) error {
	if maxBatchSize < 1 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("max_batch_size %d (must be positive)", maxBatchSize)}
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("translate: open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("translate: create output: %w", err)
	}

	w := bufio.NewWriter(out)
	err = streamBatches(p, in, w, maxBatchSize, opts, sinks)
	if ferr := w.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("translate: flush output: %w", ferr)
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("translate: close output: %w", cerr)
	}
	return err
}

// streamBatches is the reorder buffer: batches complete in any order, output
// is drained strictly by batch index. The first error encountered wins, but
// only after every in-flight future has been waited on, so no outstanding
// work leaks past an early exit.
func streamBatches(p *Pool, in io.Reader, w *bufio.Writer, maxBatchSize int, opts Options, sinks []ResultSink) error {
	var (
		pending     = make(map[int]*Future)
		submitted   = 0
		nextWrite   = 0
		recordsDone = 0
		firstErr    error
	)

	setErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	// drainOne consumes the batch at the write frontier if it is finished
	// (or unconditionally when block is set). Ordering takes precedence
	// over completion order: batch k is written before batch k+1 even if
	// k+1 finished first.
	drainOne := func(block bool) bool {
		f, ok := pending[nextWrite]
		if !ok {
			return false
		}
		if !block {
			select {
			case <-f.Done():
			default:
				return false
			}
		}
		results, err := f.Wait()
		delete(pending, nextWrite)
		nextWrite++
		switch {
		case err != nil:
			setErr(err)
		case firstErr == nil:
			if werr := writeResults(w, results, opts); werr != nil {
				setErr(fmt.Errorf("translate: write output: %w", werr))
				break
			}
			for _, sink := range sinks {
				if serr := sink.Consume(recordsDone, results); serr != nil {
					setErr(serr)
					return true
				}
			}
			recordsDone += len(results)
		}
		return true
	}

	submit := func(batch [][]string) {
		f, err := p.Submit(batch, opts)
		if err != nil {
			setErr(err)
			return
		}
		pending[submitted] = f
		submitted++
		metrics.RecordFileBatch()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	batch := make([][]string, 0, maxBatchSize)
	for firstErr == nil && scanner.Scan() {
		batch = append(batch, strings.Fields(scanner.Text()))
		if len(batch) == maxBatchSize {
			submit(batch)
			batch = make([][]string, 0, maxBatchSize)
			for drainOne(false) {
			}
		}
	}
	if err := scanner.Err(); err != nil {
		setErr(fmt.Errorf("translate: read input: %w", err))
	}
	if firstErr == nil && len(batch) > 0 {
		submit(batch)
	}

	// Pending indices are contiguous from nextWrite, so blocking on the
	// frontier drains everything.
	for len(pending) > 0 {
		drainOne(true)
	}
	return firstErr
}

// writeResults appends one line per hypothesis, grouped by input record:
// tokens space-joined, score-prefixed when WithScores is set.
func writeResults(w *bufio.Writer, results []Result, opts Options) error {
	for _, r := range results {
		for _, h := range r.Hypotheses {
			if opts.WithScores {
				if _, err := fmt.Fprintf(w, "%f ||| ", h.Score); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(strings.Join(h.Tokens, " ")); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return nil
}
