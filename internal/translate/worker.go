package translate

import (
	"fmt"
	"time"

	"github.com/23skdu/longbow-fletcher/internal/metrics"
)

// runWorker is the per-worker loop: claim the head job under the pool lock,
// execute it with the lock released, deliver the outcome, repeat. It returns
// once the pool is draining and the queue is empty.
func (p *Pool) runWorker(idx int, e Engine) {
	defer p.wg.Done()
	for {
		j := p.next()
		if j == nil {
			return
		}
		p.execute(idx, e, j)
	}
}

// next blocks until a job is available or shutdown has drained the queue.
// Jobs accepted before shutdown are still claimed and completed.
func (p *Pool) next() *job {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil
	}
	j := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	metrics.RecordQueueDepth(len(p.queue))
	return j
}

func (p *Pool) execute(idx int, e Engine, j *job) {
	start := time.Now()
	results, err := p.translate(e, j)
	if err != nil {
		metrics.RecordJobFailure()
		p.log.Error("job failed", "job_id", j.id, "worker", idx, "error", err)
		j.future.complete(nil, err)
		return
	}
	elapsed := time.Since(start)
	metrics.RecordJobSuccess(len(j.batch), elapsed)
	p.log.Debug("job complete", "job_id", j.id, "worker", idx,
		"batch_size", len(j.batch), "duration", elapsed)
	j.future.complete(results, nil)
}

// translate invokes the engine outside any pool lock and shapes its output.
// Engine failures, including panics, are contained to this job: the worker
// survives and claims the next one.
func (p *Pool) translate(e Engine, j *job) (results []Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &InferenceError{JobID: j.id, Err: fmt.Errorf("engine panic: %v", r)}
		}
	}()

	out, err := e.Translate(j.batch, j.opts)
	if err != nil {
		return nil, &InferenceError{JobID: j.id, Err: err}
	}
	return shapeResults(j, out)
}

// shapeResults enforces the result contract on raw engine output: exactly one
// Result per input, and attention present only when the request asked for it.
func shapeResults(j *job, out []Result) ([]Result, error) {
	if len(out) != len(j.batch) {
		return nil, &InferenceError{
			JobID: j.id,
			Err:   fmt.Errorf("engine returned %d results for %d inputs", len(out), len(j.batch)),
		}
	}
	if !j.opts.ReturnAttention {
		for i := range out {
			for h := range out[i].Hypotheses {
				out[i].Hypotheses[h].Attention = nil
			}
		}
	}
	return out, nil
}
