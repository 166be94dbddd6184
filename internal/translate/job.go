package translate

// Future is the write-once handle to a submitted job's outcome. Exactly one
// of results or error is set, by the worker that claimed the job.
type Future struct {
	done    chan struct{}
	results []Result
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Wait blocks until the job completes and returns its results or error.
func (f *Future) Wait() ([]Result, error) {
	<-f.done
	return f.results, f.err
}

// Done returns a channel that is closed when the job completes, for polling
// or select-based waiting.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

func (f *Future) complete(results []Result, err error) {
	f.results = results
	f.err = err
	close(f.done)
}

// job is owned by the queue from submission until exactly one worker claims
// it, then by that worker until it completes the future.
type job struct {
	id     string
	batch  [][]string
	opts   Options
	future *Future
}
