// Package translate implements the request-dispatch layer for a batch
// sequence-to-sequence engine: a fixed worker pool, a shared FIFO job queue,
// future-based result delivery and order-preserving file streaming. The
// neural inference itself lives behind the Engine interface.
package translate

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/23skdu/longbow-fletcher/internal/logger"
	"github.com/23skdu/longbow-fletcher/internal/metrics"
)

// Pool distributes translation jobs across a fixed set of workers, each
// owning one Engine instance bound to one device. The queue is the only
// structure mutated by more than one goroutine; all access goes through
// a single mutex plus a wake condition.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*job
	closed bool

	engines  []Engine
	wg       sync.WaitGroup
	teardown sync.Once

	log *logger.Logger
}

// NewPool loads workerCount engines via load and starts one worker per
// engine. Construction is all-or-nothing: if any load fails, every engine
// loaded so far is closed and an EngineLoadError is returned.
func NewPool(load Loader, modelPath, device string, deviceIndex, workerCount int) (*Pool, error) {
	if workerCount < 1 {
		return nil, &InvalidArgumentError{Reason: fmt.Sprintf("worker_count %d (must be positive)", workerCount)}
	}

	engines := make([]Engine, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		e, err := load(modelPath, device, deviceIndex)
		if err != nil {
			for _, loaded := range engines {
				loaded.Close()
			}
			return nil, &EngineLoadError{Device: device, DeviceIndex: deviceIndex, Worker: i, Err: err}
		}
		engines = append(engines, e)
	}

	p := &Pool{
		engines: engines,
		log:     logger.Log.With("pool"),
	}
	p.cond = sync.NewCond(&p.mu)

	for i, e := range engines {
		p.wg.Add(1)
		go p.runWorker(i, e)
	}

	p.log.Info("pool started", "device", device, "device_index", deviceIndex, "workers", workerCount)
	return p, nil
}

// Submit enqueues one batch and returns immediately with a Future that
// resolves once some worker completes it. Validation failures are reported
// synchronously as InvalidArgumentError; a shut-down pool reports
// ErrPoolClosed. Independent Submit calls are never merged into larger
// batches: batch composition stays under caller control.
func (p *Pool) Submit(batch [][]string, opts Options) (*Future, error) {
	if len(batch) == 0 {
		return nil, &InvalidArgumentError{Reason: "empty batch"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	j := &job{
		id:     uuid.NewString(),
		batch:  batch,
		opts:   opts,
		future: newFuture(),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.queue = append(p.queue, j)
	depth := len(p.queue)
	p.cond.Signal()
	p.mu.Unlock()

	metrics.RecordSubmit(len(batch), depth)
	p.log.Debug("job submitted", "job_id", j.id, "batch_size", len(batch), "queue_depth", depth)
	return j.future, nil
}

// TranslateBatch is the synchronous convenience wrapper around Submit: it
// blocks the calling goroutine until the batch completes. Worker goroutines
// are unaffected by the wait.
func (p *Pool) TranslateBatch(batch [][]string, opts Options) ([]Result, error) {
	f, err := p.Submit(batch, opts)
	if err != nil {
		return nil, err
	}
	return f.Wait()
}

// TranslateFile translates a newline-delimited token file into outputPath,
// batching records up to maxBatchSize and preserving input order in the
// output. It blocks until the whole file is processed; internally it uses
// the asynchronous Submit path so batches overlap across workers. Optional
// sinks receive each batch's results after they are written.
func (p *Pool) TranslateFile(inputPath, outputPath string, maxBatchSize int, opts Options, sinks ...ResultSink) error {
	return streamFile(p, inputPath, outputPath, maxBatchSize, opts, sinks)
}

// Shutdown stops intake, waits for every accepted job to complete, joins the
// workers and closes the engines. It is idempotent; concurrent callers all
// block until teardown has finished.
func (p *Pool) Shutdown() {
	p.teardown.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.cond.Broadcast()
		p.mu.Unlock()

		p.wg.Wait()

		for _, e := range p.engines {
			if err := e.Close(); err != nil {
				p.log.Warn("engine close failed", "error", err)
			}
		}
		p.log.Info("pool stopped")
	})
}
